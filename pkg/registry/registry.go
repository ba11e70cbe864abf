// pkg/registry/registry.go
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Entry represents a single deps/<name>/index.toml file
type Entry struct {
	Name     string            `toml:"name"`
	Libs     []string          `toml:"libs"`
	Backends map[string]string `toml:"backends"`
}

// builtin covers libraries bridged out of the box so a hint exists without a deps/ folder
var builtin = map[string]*Entry{
	"aria2": {
		Name: "aria2",
		Libs: []string{"aria2"},
		Backends: map[string]string{
			"apt":    "libaria2-0-dev",
			"dnf":    "aria2-devel",
			"zypper": "libaria2-devel",
			"pacman": "aria2",
			"apk":    "aria2-dev",
			"brew":   "aria2",
			"nix":    "aria2.dev",
		},
	},
}

// installCommands renders an install command for a backend package name
var installCommands = map[string]string{
	"apt":    "sudo apt install %s",
	"dpkg":   "sudo apt install %s",
	"dnf":    "sudo dnf install %s",
	"zypper": "sudo zypper install %s",
	"pacman": "sudo pacman -S %s",
	"apk":    "sudo apk add %s",
	"brew":   "brew install %s",
	"nix":    "nix-env -iA nixpkgs.%s",
	"choco":  "choco install %s",
	"winget": "winget install %s",
}

// Registry provides lookup into the deps/ folder, falling back to built-in entries
type Registry struct {
	depsDir   string
	overrides map[string]string // backend -> package, applied to every lookup
}

// New creates a Registry pointed at the deps directory under cacheDir
func New(cacheDir string) *Registry {
	return &Registry{
		depsDir:   filepath.Join(cacheDir, "deps"),
		overrides: make(map[string]string),
	}
}

// WithOverrides returns a copy of r using the given backend -> package names
func (r *Registry) WithOverrides(overrides map[string]string) *Registry {
	cp := &Registry{depsDir: r.depsDir, overrides: make(map[string]string, len(overrides))}
	for k, v := range overrides {
		cp.overrides[k] = v
	}
	return cp
}

// Resolve takes a canonical package name and a backend,
// returns the backend-specific package name.
// e.g. Resolve("aria2", "apt") -> "libaria2-0-dev"
func (r *Registry) Resolve(name string, backend string) (string, error) {
	if pkg, ok := r.overrides[backend]; ok {
		return pkg, nil
	}

	entry, err := r.Load(name)
	if err != nil {
		return "", err
	}

	pkgName, ok := entry.Backends[backend]
	if !ok {
		return "", fmt.Errorf("registry: package '%s' has no entry for backend '%s'", name, backend)
	}

	return pkgName, nil
}

// Hint returns an actionable install command for name on backend.
// Unknown packages fall back to a generic pkg-config message.
func (r *Registry) Hint(name, pkgConfigName, backend string) string {
	pkg, err := r.Resolve(name, backend)
	if err != nil {
		return fmt.Sprintf("install the development package providing %s.pc, or set PKG_CONFIG_PATH", pkgConfigName)
	}

	format, ok := installCommands[backend]
	if !ok {
		return fmt.Sprintf("install %s with %s", pkg, backend)
	}
	return fmt.Sprintf(format, pkg)
}

// Load reads and parses deps/<name>/index.toml, falling back to built-in entries.
func (r *Registry) Load(name string) (*Entry, error) {
	path := filepath.Join(r.depsDir, name, "index.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if entry, ok := builtin[name]; ok {
			return entry, nil
		}
		// Check if the directory exists, to give a better error message.
		if _, statErr := os.Stat(filepath.Dir(path)); statErr == nil {
			return nil, fmt.Errorf("registry: found package '%s' directory, but missing index.toml", name)
		}
		return nil, fmt.Errorf("registry: package '%s' not found", name)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
	}

	return &entry, nil
}

// Backends lists the backends an install command can be rendered for
func Backends() []string {
	names := make([]string, 0, len(installCommands))
	for name := range installCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
