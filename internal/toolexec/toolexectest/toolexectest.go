// Package toolexectest provides a scripted toolexec.Runner for tests that
// must not depend on a host toolchain.
package toolexectest

import (
	"context"
	"fmt"
	"sync"

	"github.com/arc-language/cbridge/internal/toolexec"
)

// Runner answers commands from Handler and records every call
type Runner struct {
	mu      sync.Mutex
	Handler func(cmd toolexec.Command) (*toolexec.Result, error)
	Calls   []toolexec.Command
}

// Run implements toolexec.Runner
func (r *Runner) Run(ctx context.Context, cmd toolexec.Command) (*toolexec.Result, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, cmd)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &toolexec.Result{ExitCode: -1}, err
	}
	if r.Handler == nil {
		return &toolexec.Result{}, nil
	}
	return r.Handler(cmd)
}

// Exit returns a Result and error representing a non-zero exit
func Exit(code int, output string) (*toolexec.Result, error) {
	return &toolexec.Result{
		Stderr:   []byte(output),
		Combined: []byte(output),
		ExitCode: code,
	}, fmt.Errorf("exit status %d", code)
}

// OK returns a successful Result with stdout
func OK(stdout string) (*toolexec.Result, error) {
	return &toolexec.Result{Stdout: []byte(stdout), Combined: []byte(stdout)}, nil
}
