// pkg/core/library.go
package core

import (
	"fmt"
	"strings"
)

// LibrarySpec identifies the third-party library a bridge links against.
// Fields are unexported so a spec cannot change after construction.
type LibrarySpec struct {
	name       string
	pkgConfig  string
	minVersion string
}

// NewLibrarySpec creates a LibrarySpec.
// pkgConfigName defaults to "lib" + name when empty.
func NewLibrarySpec(name, pkgConfigName, minVersion string) (LibrarySpec, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LibrarySpec{}, fmt.Errorf("library name is required")
	}
	if strings.ContainsAny(name, "/\\ ") {
		return LibrarySpec{}, fmt.Errorf("invalid library name %q", name)
	}
	if pkgConfigName == "" {
		pkgConfigName = "lib" + name
	}
	return LibrarySpec{
		name:       name,
		pkgConfig:  pkgConfigName,
		minVersion: strings.TrimSpace(minVersion),
	}, nil
}

// Name returns the canonical library name used in link directives (e.g. "aria2")
func (s LibrarySpec) Name() string { return s.name }

// PkgConfigName returns the name queried in the system registry (e.g. "libaria2")
func (s LibrarySpec) PkgConfigName() string { return s.pkgConfig }

// MinVersion returns the minimum accepted version, empty when unconstrained
func (s LibrarySpec) MinVersion() string { return s.minVersion }

func (s LibrarySpec) String() string {
	if s.minVersion == "" {
		return s.name
	}
	return fmt.Sprintf("%s>=%s", s.name, s.minVersion)
}
