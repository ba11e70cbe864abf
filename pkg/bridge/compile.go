// Package bridge compiles the bridging translation unit into a static archive
// and tracks the inputs whose change requires the bridge to be prepared again.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/internal/toolexec"
	"github.com/arc-language/cbridge/pkg/core"
	"go.uber.org/zap"
)

// Options describes one bridge compilation
type Options struct {
	Name         string   // archive name, produces lib<Name>.a
	Sources      []string // translation units
	IncludePaths []string
	Flags        []string // best-effort, dropped when the compiler rejects them
	ExtraFlags   []string // always passed (e.g. registry cflags)
	OutDir       string
	PIC          bool
}

// Artifact is the compiled bridge
type Artifact struct {
	Name    string
	Archive string   // path of lib<Name>.a
	Objects []string // object files packed into Archive
	Flags   []string // best-effort flags that were applied
}

// Toolchain invokes the native C++ compiler and archiver
type Toolchain struct {
	CXX    string
	AR     string
	Runner toolexec.Runner

	mu     sync.Mutex
	probed map[string]bool
}

// NewToolchain creates a toolchain from $CXX and $AR, falling back to c++ and ar
func NewToolchain(cxx, ar string) *Toolchain {
	if cxx == "" {
		cxx = os.Getenv("CXX")
	}
	if cxx == "" {
		cxx = "c++"
	}
	if ar == "" {
		ar = os.Getenv("AR")
	}
	if ar == "" {
		ar = "ar"
	}
	return &Toolchain{
		CXX:    cxx,
		AR:     ar,
		Runner: toolexec.ExecRunner{},
	}
}

// Compile compiles every source and packs the objects into lib<Name>.a.
// A failing compiler or archiver yields a CompilationError carrying its raw output.
func (tc *Toolchain) Compile(ctx context.Context, opts Options) (*Artifact, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("bridge name is required")
	}
	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("bridge %s has no sources", opts.Name)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, &core.IOError{Op: "creating output directory", Path: outDir, Err: err}
	}

	applied := tc.supportedFlags(ctx, outDir, opts.Flags)

	args := append([]string(nil), applied...)
	if opts.PIC {
		args = append(args, "-fPIC")
	}
	args = append(args, opts.ExtraFlags...)
	for _, inc := range opts.IncludePaths {
		args = append(args, "-I"+inc)
	}

	objects := make([]string, 0, len(opts.Sources))
	seen := make(map[string]int)
	for _, src := range opts.Sources {
		obj := objectName(src, seen)
		objPath := filepath.Join(outDir, obj)

		cmdArgs := append(append([]string(nil), args...), "-c", src, "-o", objPath)
		if err := tc.run(ctx, toolexec.Command{Name: tc.CXX, Args: cmdArgs}); err != nil {
			return nil, err
		}
		objects = append(objects, objPath)
	}

	archive := filepath.Join(outDir, "lib"+opts.Name+".a")
	// ar appends to an existing archive, stale members must not survive
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return nil, &core.IOError{Op: "removing stale archive", Path: archive, Err: err}
	}

	packArgs := append([]string{"crs", archive}, objects...)
	if err := tc.run(ctx, toolexec.Command{Name: tc.AR, Args: packArgs}); err != nil {
		return nil, err
	}

	log.L().Debug("compiled bridge",
		zap.String("archive", archive),
		zap.Strings("flags", applied))

	return &Artifact{
		Name:    opts.Name,
		Archive: archive,
		Objects: objects,
		Flags:   applied,
	}, nil
}

// supportedFlags keeps the flags the compiler accepts
func (tc *Toolchain) supportedFlags(ctx context.Context, outDir string, flags []string) []string {
	var out []string
	for _, flag := range flags {
		if tc.IsFlagSupported(ctx, outDir, flag) {
			out = append(out, flag)
		} else {
			log.L().Debug("compiler flag not supported, skipping",
				zap.String("cxx", tc.CXX),
				zap.String("flag", flag))
		}
	}
	return out
}

// IsFlagSupported compiles an empty translation unit with flag and -Werror.
// Results are cached per toolchain.
func (tc *Toolchain) IsFlagSupported(ctx context.Context, dir, flag string) bool {
	tc.mu.Lock()
	if ok, cached := tc.probed[flag]; cached {
		tc.mu.Unlock()
		return ok
	}
	tc.mu.Unlock()

	ok := tc.probe(ctx, dir, flag)

	tc.mu.Lock()
	if tc.probed == nil {
		tc.probed = make(map[string]bool)
	}
	tc.probed[flag] = ok
	tc.mu.Unlock()

	return ok
}

func (tc *Toolchain) probe(ctx context.Context, dir, flag string) bool {
	src := filepath.Join(dir, "flag_check.cpp")
	if err := os.WriteFile(src, []byte("int main(void) { return 0; }\n"), 0644); err != nil {
		return false
	}
	defer os.Remove(src)
	obj := src + ".o"
	defer os.Remove(obj)

	cmd := toolexec.Command{
		Name: tc.CXX,
		Args: []string{flag, "-Werror", "-c", src, "-o", obj},
	}
	res, err := tc.runner().Run(ctx, cmd)
	if err != nil {
		return false
	}
	// clang only warns about unknown -std values on some versions
	return !strings.Contains(string(res.Combined), "unknown")
}

func (tc *Toolchain) run(ctx context.Context, cmd toolexec.Command) error {
	res, err := tc.runner().Run(ctx, cmd)
	if err != nil {
		output := ""
		if res != nil {
			output = string(res.Combined)
		}
		return &core.CompilationError{Command: cmd.Argv(), Output: output, Err: err}
	}
	return nil
}

func (tc *Toolchain) runner() toolexec.Runner {
	if tc.Runner == nil {
		return toolexec.ExecRunner{}
	}
	return tc.Runner
}

// objectName derives a unique object file name from a source path
func objectName(src string, seen map[string]int) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	n := seen[base]
	seen[base] = n + 1
	if n > 0 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	return base + ".o"
}
