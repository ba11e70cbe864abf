// pkg/locate/layout.go
package locate

import (
	"os"
	"path/filepath"

	"github.com/arc-language/cbridge/pkg/core"
)

// Layout is a validated local distribution: <root>/lib and <root>/include
type Layout struct {
	Root       string
	LibDir     string // canonical absolute path
	IncludeDir string
}

// ValidateLayout checks that root, root/lib and root/include are all directories.
// Every path is checked before an error is returned, and the error names each
// missing one. The library directory is canonicalized because the linker needs
// an absolute, symlink-free search path.
func ValidateLayout(root string) (*Layout, error) {
	libDir := filepath.Join(root, "lib")
	includeDir := filepath.Join(root, "include")

	var missing []string
	for _, dir := range []string{root, libDir, includeDir} {
		if !isDir(dir) {
			missing = append(missing, dir)
		}
	}
	if len(missing) > 0 {
		return nil, &core.InvalidLayoutError{Root: root, Missing: missing}
	}

	canonicalLib, err := canonicalize(libDir)
	if err != nil {
		return nil, err
	}

	return &Layout{
		Root:       root,
		LibDir:     canonicalLib,
		IncludeDir: includeDir,
	}, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &core.IOError{Op: "canonicalizing", Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &core.IOError{Op: "canonicalizing", Path: path, Err: err}
	}
	return resolved, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
