// errors.go
package cbridge

import (
	"fmt"

	"github.com/arc-language/cbridge/pkg/core"
)

// Re-export error kinds so callers can match with errors.Is / errors.As
var (
	ErrDependencyNotFound = core.ErrDependencyNotFound
	ErrInvalidLayout      = core.ErrInvalidLayout
	ErrIO                 = core.ErrIO
	ErrCompilation        = core.ErrCompilation
)

type (
	DependencyNotFoundError = core.DependencyNotFoundError
	InvalidLayoutError      = core.InvalidLayoutError
	IOError                 = core.IOError
	CompilationError        = core.CompilationError
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Library string // Library name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Library != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Library, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
