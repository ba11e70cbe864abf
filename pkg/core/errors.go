// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDependencyNotFound indicates the registry has no entry satisfying the minimum version
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrInvalidLayout indicates a local distribution is missing required directories
	ErrInvalidLayout = errors.New("invalid library layout")

	// ErrIO indicates a filesystem operation failed
	ErrIO = errors.New("i/o error")

	// ErrCompilation indicates the native toolchain returned a failure status
	ErrCompilation = errors.New("compilation failed")
)

// DependencyNotFoundError is returned when the system package registry cannot satisfy a library
type DependencyNotFoundError struct {
	Library    string // Registry name that was queried
	MinVersion string // Minimum version requested, may be empty
	Found      string // Version found if the library exists but is too old
	Hint       string // Actionable install command
	Err        error  // Underlying registry error
}

func (e *DependencyNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dependency not satisfied: %s", e.Library)
	if e.MinVersion != "" {
		fmt.Fprintf(&b, " >= %s", e.MinVersion)
	}
	if e.Found != "" {
		fmt.Fprintf(&b, " (found %s)", e.Found)
	}
	b.WriteString(" can't be found!")
	if e.Hint != "" {
		fmt.Fprintf(&b, " Run:  %s", e.Hint)
	}
	return b.String()
}

func (e *DependencyNotFoundError) Is(target error) bool { return target == ErrDependencyNotFound }
func (e *DependencyNotFoundError) Unwrap() error       { return e.Err }

// InvalidLayoutError lists every required directory missing from a local distribution
type InvalidLayoutError struct {
	Root    string
	Missing []string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("path %q does not exist, or does not contain 'lib' and 'include' sub-dirs (missing: %s)",
		e.Root, strings.Join(e.Missing, ", "))
}

func (e *InvalidLayoutError) Is(target error) bool { return target == ErrInvalidLayout }

// IOError wraps a failed directory read or path canonicalization
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error       { return e.Err }

// CompilationError carries the toolchain's raw diagnostic output unmodified
type CompilationError struct {
	Command []string
	Output  string
	Err     error
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Command, " "), e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *CompilationError) Is(target error) bool { return target == ErrCompilation }
func (e *CompilationError) Unwrap() error       { return e.Err }
