// Package locate decides where the third-party library comes from and produces
// the include paths, library paths and link plan for it.
package locate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/pkg/core"
	"github.com/arc-language/cbridge/pkg/linkplan"
	"github.com/arc-language/cbridge/pkg/pkgconfig"
	"github.com/arc-language/cbridge/pkg/platform"
	"github.com/arc-language/cbridge/pkg/unpack"
	"go.uber.org/zap"
)

// Registry queries the host package registry
type Registry interface {
	Probe(ctx context.Context, name, minVersion string) (*pkgconfig.Package, error)
}

// Resolution is everything the build needs to compile and link against the library
type Resolution struct {
	Library     core.LibrarySpec
	Strategy    Strategy
	Version     string        // registry version, empty for local distributions
	IncludeDirs []string      // compiler search paths
	LibDirs     []string      // linker search paths, absolute
	Links       linkplan.Plan // primary first
	SystemLibs  []string      // OS libraries appended after Links
	CFlags      []string      // extra compiler flags reported by the registry
	LDFlags     []string      // extra linker flags reported by the registry
}

// Locator resolves a library with the strategy chosen from the override path
type Locator struct {
	Registry Registry
	Hint     func(spec core.LibrarySpec) string // install hint for DependencyNotFoundError
	CacheDir string                             // where packed distributions are unpacked
	TargetOS string                             // empty means platform.TargetOS()

	validate func(root string) (*Layout, error)
}

// New creates a Locator querying pkg-config
func New(cacheDir string) *Locator {
	return &Locator{
		Registry: pkgconfig.NewClient(),
		CacheDir: cacheDir,
	}
}

// Resolve selects the strategy from override and resolves spec with it.
// Nothing is returned unless the whole resolution succeeded.
func (l *Locator) Resolve(ctx context.Context, spec core.LibrarySpec, override string) (*Resolution, error) {
	strategy := SelectStrategy(override)

	log.L().Debug("resolving library",
		zap.String("library", spec.String()),
		zap.Stringer("strategy", strategy))

	switch s := strategy.(type) {
	case SystemPackage:
		return l.resolveSystem(ctx, spec)
	case LocalDirectory:
		return l.resolveLocal(spec, s)
	default:
		return nil, fmt.Errorf("unknown strategy %v", strategy)
	}
}

func (l *Locator) resolveSystem(ctx context.Context, spec core.LibrarySpec) (*Resolution, error) {
	if l.Registry == nil {
		return nil, fmt.Errorf("no package registry configured")
	}

	pkg, err := l.Registry.Probe(ctx, spec.PkgConfigName(), spec.MinVersion())
	if err != nil {
		if !errors.Is(err, pkgconfig.ErrNotFound) {
			return nil, err
		}
		nf := &core.DependencyNotFoundError{
			Library:    spec.PkgConfigName(),
			MinVersion: spec.MinVersion(),
			Err:        err,
		}
		var pcErr *pkgconfig.NotFoundError
		if errors.As(err, &pcErr) {
			nf.Found = pcErr.Found
		}
		if l.Hint != nil {
			nf.Hint = l.Hint(spec)
		}
		return nil, nf
	}

	// The registry already encodes transitive requirements, so the primary
	// library is the only planned link and no system libraries are added.
	return &Resolution{
		Library:     spec,
		Strategy:    SystemPackage{},
		Version:     pkg.Version,
		IncludeDirs: pkg.IncludeDirs,
		LibDirs:     pkg.LibDirs,
		Links:       linkplan.Primary(spec.Name()),
		CFlags:      withoutIncludes(pkg.CFlags),
		LDFlags:     withoutPrimary(pkg.Libs, spec.Name()),
	}, nil
}

func (l *Locator) resolveLocal(spec core.LibrarySpec, s LocalDirectory) (*Resolution, error) {
	root := s.Path
	if isPacked(root) {
		unpacked, err := unpack.Unpack(root, l.CacheDir)
		if err != nil {
			return nil, &core.IOError{Op: "unpacking", Path: root, Err: err}
		}
		log.L().Debug("using unpacked distribution", zap.String("root", unpacked))
		root = unpacked
	}

	validate := l.validate
	if validate == nil {
		validate = ValidateLayout
	}
	layout, err := validate(root)
	if err != nil {
		return nil, err
	}

	plan, err := linkplan.PlanLinks(layout.LibDir, spec.Name())
	if err != nil {
		return nil, err
	}

	targetOS := l.TargetOS
	if targetOS == "" {
		targetOS = platform.TargetOS()
	}

	return &Resolution{
		Library:     spec,
		Strategy:    s,
		IncludeDirs: []string{layout.IncludeDir},
		LibDirs:     []string{layout.LibDir},
		Links:       plan,
		SystemLibs:  platform.Libraries(targetOS),
	}, nil
}

// isPacked reports whether path is an archive file to unpack.
// Directories and missing paths go through layout validation whatever their name.
func isPacked(path string) bool {
	if unpack.Detect(path) == unpack.FormatNone {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// withoutIncludes drops -I flags, which are reported as IncludeDirs
func withoutIncludes(flags []string) []string {
	var out []string
	for _, f := range flags {
		if len(f) > 2 && f[:2] == "-I" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// withoutPrimary drops -L flags (reported as LibDirs) and the primary -l flag
func withoutPrimary(flags []string, primary string) []string {
	var out []string
	for _, f := range flags {
		if f == "-l"+primary || (len(f) > 2 && f[:2] == "-L") {
			continue
		}
		out = append(out, f)
	}
	return out
}
