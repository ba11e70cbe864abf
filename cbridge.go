// cbridge.go
package cbridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/pkg/bridge"
	"github.com/arc-language/cbridge/pkg/core"
	"github.com/arc-language/cbridge/pkg/directive"
	"github.com/arc-language/cbridge/pkg/locate"
	"github.com/arc-language/cbridge/pkg/platform"
	"github.com/arc-language/cbridge/pkg/registry"
	"go.uber.org/zap"
)

// Re-export types for convenience
type (
	Config         = core.Config
	LibrarySpec    = core.LibrarySpec
	Resolution     = locate.Resolution
	Artifact       = bridge.Artifact
	Strategy       = locate.Strategy
	SystemPackage  = locate.SystemPackage
	LocalDirectory = locate.LocalDirectory
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Result is the outcome of a successful run
type Result struct {
	Resolution *Resolution
	Artifact   *Artifact // nil when compilation was skipped
	Output     *directive.Output
	Triggers   []string
	Override   string // local distribution override in effect, empty for the registry
}

// Builder prepares the native bridge for one build invocation
type Builder struct {
	Config    *Config
	Locator   *locate.Locator
	Toolchain *bridge.Toolchain
	Stdout    io.Writer

	// Override returns the local distribution path, empty for the system registry
	Override func() string
}

// New creates a Builder wired to pkg-config and the host C++ toolchain
func New(cfg *Config) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	hints := registry.New(cfg.CacheDir).WithOverrides(cfg.Hints)

	locator := locate.New(cfg.CacheDir)
	locator.TargetOS = targetOS(cfg)
	locator.Hint = func(spec core.LibrarySpec) string {
		// unsupported hosts still get a hint for the conventional backend
		plat, _ := platform.Detect()
		return hints.Hint(spec.Name(), spec.PkgConfigName(), platform.ResolveBackend(plat, ""))
	}

	return &Builder{
		Config:    cfg,
		Locator:   locator,
		Toolchain: bridge.NewToolchain(cfg.Bridge.CXX, cfg.Bridge.AR),
		Stdout:    os.Stdout,
		Override:  cfg.Override,
	}
}

// Plan resolves the library and computes every directive without compiling or writing
func (b *Builder) Plan(ctx context.Context) (*Result, error) {
	if err := b.Config.Validate(); err != nil {
		return nil, &Error{Op: "configure", Err: err}
	}
	spec, err := b.Config.LibrarySpec()
	if err != nil {
		return nil, &Error{Op: "configure", Err: err}
	}

	override := b.override()

	res, err := b.Locator.Resolve(ctx, spec, override)
	if err != nil {
		return nil, &Error{Op: "resolve", Library: spec.Name(), Err: err}
	}
	if err := res.Links.Validate(); err != nil {
		return nil, &Error{Op: "plan", Library: spec.Name(), Err: err}
	}

	triggers := b.Triggers()
	return &Result{
		Resolution: res,
		Output:     b.output(res, nil, triggers),
		Triggers:   triggers,
		Override:   override,
	}, nil
}

// Prepare resolves the library, compiles the bridge and writes the build outputs.
// The first fatal error aborts the run and nothing is written.
func (b *Builder) Prepare(ctx context.Context) (*Result, error) {
	result, err := b.Plan(ctx)
	if err != nil {
		return nil, err
	}
	res := result.Resolution

	log.L().Info("library resolved",
		zap.Stringer("strategy", res.Strategy),
		zap.Strings("links", res.Links.Names()),
		zap.Strings("systemLibs", res.SystemLibs))

	includes := append(append([]string(nil), res.IncludeDirs...), b.Config.Bridge.Includes...)
	artifact, err := b.Toolchain.Compile(ctx, bridge.Options{
		Name:         b.Config.Bridge.Name,
		Sources:      b.Config.Bridge.Sources,
		IncludePaths: includes,
		Flags:        b.Config.Bridge.Flags,
		ExtraFlags:   res.CFlags,
		OutDir:       b.Config.Bridge.OutDir,
		PIC:          platform.Family(b.Locator.TargetOS) != platform.Windows,
	})
	if err != nil {
		return nil, &Error{Op: "compile", Library: b.Config.Bridge.Name, Err: err}
	}

	result.Artifact = artifact
	result.Output = b.output(res, artifact, result.Triggers)

	if err := b.write(result); err != nil {
		return nil, &Error{Op: "write outputs", Err: err}
	}
	return result, nil
}

// Check returns the triggers changed since the last successful Prepare.
// A different override is reported as "$<override_env>".
// An empty result means the bridge is up to date.
func (b *Builder) Check() ([]string, error) {
	changed, err := bridge.Changed(b.Config.Outputs.Stamp, b.Triggers())
	if err != nil {
		return nil, err
	}

	stamp, err := bridge.LoadStamp(b.Config.Outputs.Stamp)
	if err != nil {
		if os.IsNotExist(err) {
			return changed, nil
		}
		return nil, err
	}
	if stamp.Override != b.override() {
		changed = append(changed, "$"+b.Config.OverrideEnv)
	}
	return changed, nil
}

// Reuse replays the directive stream of the last successful Prepare when no
// trigger or override changed and every output file is still present.
// It reports false, writing nothing, when Prepare has to run.
func (b *Builder) Reuse() (bool, error) {
	outputs := b.Config.Outputs
	if outputs.Stamp == "" {
		return false, nil
	}

	changed, err := b.Check()
	if err != nil || len(changed) > 0 {
		return false, err
	}

	for _, path := range []string{outputs.CgoFile, fileSink(outputs.Directives)} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return false, nil
		}
	}

	stamp, err := bridge.LoadStamp(outputs.Stamp)
	if err != nil {
		return false, err
	}
	out, err := directive.Parse(stamp.Directives)
	if err != nil {
		return false, nil
	}

	if outputs.Directives == "-" {
		if err := out.WriteText(b.Stdout); err != nil {
			return false, &Error{Op: "write outputs", Err: err}
		}
	}
	log.L().Debug("bridge up to date, directives replayed", zap.Int("directives", len(stamp.Directives)))
	return true, nil
}

// Triggers returns the inputs whose change requires Prepare to run again
func (b *Builder) Triggers() []string {
	entry := b.Config.Path
	if entry == "" {
		entry = core.DefaultConfigFile
	}
	return bridge.Triggers(b.Config.Bridge.Sources, b.Config.Bridge.Headers, entry)
}

// output orders the directives: search paths, the bridge archive, the primary
// library and its dependents, then system libraries.
func (b *Builder) output(res *Resolution, artifact *Artifact, triggers []string) *directive.Output {
	var out directive.Output

	out.Add(directive.Include, res.IncludeDirs...)
	out.Add(directive.Include, b.Config.Bridge.Includes...)
	out.Add(directive.CFlag, res.CFlags...)

	if artifact != nil {
		if abs, err := filepath.Abs(filepath.Dir(artifact.Archive)); err == nil {
			out.Add(directive.LinkSearch, abs)
		}
	}
	out.Add(directive.LinkSearch, res.LibDirs...)

	if artifact != nil {
		out.Add(directive.BridgeLib, artifact.Name)
	}
	out.Add(directive.LinkLib, res.Links.Names()...)
	out.Add(directive.LinkLib, res.SystemLibs...)
	out.Add(directive.LDFlag, res.LDFlags...)

	out.Add(directive.RerunIfChanged, triggers...)
	return &out
}

// write renders every output file to a temporary file first and renames them
// into place only once all of them rendered. The stdout stream goes last.
func (b *Builder) write(result *Result) error {
	outputs := b.Config.Outputs

	var staged []staging
	defer func() {
		for _, st := range staged {
			os.Remove(st.tmp)
		}
	}()
	stage := func(path string, render func(io.Writer) error) error {
		tmp, err := renderTemp(path, render)
		if err != nil {
			return err
		}
		staged = append(staged, staging{tmp: tmp, path: path})
		return nil
	}

	if path := fileSink(outputs.Directives); path != "" {
		if err := stage(path, result.Output.WriteText); err != nil {
			return err
		}
	}

	if outputs.CgoFile != "" {
		if err := stage(outputs.CgoFile, func(w io.Writer) error {
			return result.Output.WriteCgo(w, outputs.CgoPackage)
		}); err != nil {
			return err
		}
	}

	if outputs.Stamp != "" {
		stamp, err := bridge.NewStamp(result.Triggers)
		if err != nil {
			return err
		}
		stamp.Directives = result.Output.Lines()
		stamp.Override = result.Override
		if err := stage(outputs.Stamp, stamp.Encode); err != nil {
			return err
		}
	}

	for len(staged) > 0 {
		if err := os.Rename(staged[0].tmp, staged[0].path); err != nil {
			return fmt.Errorf("committing %s: %w", staged[0].path, err)
		}
		staged = staged[1:]
	}

	if outputs.Directives == "-" {
		return result.Output.WriteText(b.Stdout)
	}
	return nil
}

type staging struct {
	tmp  string
	path string
}

// renderTemp renders into a temporary file next to path and returns its name
func renderTemp(path string, render func(io.Writer) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// fileSink returns the directive file, empty when directives go to stdout or nowhere
func fileSink(directives string) string {
	if directives == "-" {
		return ""
	}
	return directives
}

func (b *Builder) override() string {
	if b.Override == nil {
		return ""
	}
	return b.Override()
}

func targetOS(cfg *Config) string {
	if cfg.TargetOS != "" {
		return platform.Family(cfg.TargetOS)
	}
	return platform.TargetOS()
}
