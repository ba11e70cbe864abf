// pkg/locate/strategy.go
package locate

import "fmt"

// Strategy is how the library is found: SystemPackage or LocalDirectory.
// It is chosen once per build by SelectStrategy.
type Strategy interface {
	fmt.Stringer
	isStrategy()
}

// SystemPackage resolves the library through the host package registry
type SystemPackage struct{}

// LocalDirectory resolves the library from a distribution tree on disk
type LocalDirectory struct {
	Path string
}

func (SystemPackage) isStrategy()  {}
func (LocalDirectory) isStrategy() {}

func (SystemPackage) String() string    { return "system-package" }
func (l LocalDirectory) String() string { return "local-directory(" + l.Path + ")" }

// SelectStrategy picks LocalDirectory when an override path is given, SystemPackage otherwise
func SelectStrategy(override string) Strategy {
	if override == "" {
		return SystemPackage{}
	}
	return LocalDirectory{Path: override}
}
