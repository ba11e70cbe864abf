// Package toolexec runs external build tools (pkg-config, the C++ compiler, ar).
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/arc-language/cbridge/internal/log"
	"go.uber.org/zap"
)

// Command describes one tool invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // Appended to the current environment
}

// Argv returns the command line as a slice
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Result holds captured output of a finished command
type Result struct {
	Stdout   []byte
	Stderr   []byte
	Combined []byte // stdout and stderr interleaved as written
	ExitCode int
}

// Runner executes commands. A non-zero exit is reported as an error
// alongside a populated Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	var stdout, stderr, combined bytes.Buffer

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = io.MultiWriter(&stdout, &combined)
	c.Stderr = io.MultiWriter(&stderr, &combined)
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	log.L().Debug("exec", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))

	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Combined: combined.Bytes(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		res.ExitCode = -1
	}

	return res, err
}
