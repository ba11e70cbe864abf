// Package pkgconfig queries the host's pkg-config registry for installed libraries.
package pkgconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/arc-language/cbridge/internal/log"
	"github.com/arc-language/cbridge/internal/toolexec"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the registry has no entry satisfying a query
var ErrNotFound = errors.New("pkg-config: package not found")

// NotFoundError describes a failed probe
type NotFoundError struct {
	Name       string
	MinVersion string
	Found      string // set when the package exists but is older than MinVersion
	Output     string // pkg-config's own message
}

func (e *NotFoundError) Error() string {
	if e.Found != "" {
		return fmt.Sprintf("pkg-config: %s %s is older than required %s", e.Name, e.Found, e.MinVersion)
	}
	msg := fmt.Sprintf("pkg-config: package %s not found", e.Name)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Package is a resolved pkg-config entry
type Package struct {
	Name        string
	Version     string
	CFlags      []string
	Libs        []string
	IncludeDirs []string // from -I
	LibDirs     []string // from -L
	LinkNames   []string // from -l
}

// Client runs pkg-config
type Client struct {
	Binary string   // Default: $PKG_CONFIG or "pkg-config"
	Path   []string // Extra PKG_CONFIG_PATH entries
	Static bool     // Pass --static to --libs
	Runner toolexec.Runner
}

// NewClient creates a client using the host pkg-config
func NewClient() *Client {
	bin := os.Getenv("PKG_CONFIG")
	if bin == "" {
		bin = "pkg-config"
	}
	return &Client{
		Binary: bin,
		Runner: toolexec.ExecRunner{},
	}
}

// Probe resolves name, requiring at least minVersion when it is not empty
func (c *Client) Probe(ctx context.Context, name, minVersion string) (*Package, error) {
	if _, err := c.run(ctx, "--exists", "--print-errors", name); err != nil {
		return nil, c.notFound(name, minVersion, err)
	}

	version, err := c.run(ctx, "--modversion", name)
	if err != nil {
		return nil, c.notFound(name, minVersion, err)
	}

	if minVersion != "" {
		ok, err := c.atLeast(ctx, name, version, minVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &NotFoundError{Name: name, MinVersion: minVersion, Found: version}
		}
	}

	cflags, err := c.run(ctx, "--cflags", name)
	if err != nil {
		return nil, fmt.Errorf("pkg-config --cflags %s: %w", name, err)
	}

	libsArgs := []string{"--libs"}
	if c.Static {
		libsArgs = append(libsArgs, "--static")
	}
	libs, err := c.run(ctx, append(libsArgs, name)...)
	if err != nil {
		return nil, fmt.Errorf("pkg-config --libs %s: %w", name, err)
	}

	pkg := &Package{
		Name:    name,
		Version: version,
		CFlags:  strings.Fields(cflags),
		Libs:    strings.Fields(libs),
	}
	pkg.parseFlags()

	log.L().Debug("pkg-config probe",
		zap.String("name", name),
		zap.String("version", version),
		zap.Strings("libs", pkg.Libs))

	return pkg, nil
}

// atLeast compares with semver when both versions parse, otherwise defers to pkg-config
func (c *Client) atLeast(ctx context.Context, name, have, want string) (bool, error) {
	h, w := Canonical(have), Canonical(want)
	if h != "" && w != "" {
		return semver.Compare(h, w) >= 0, nil
	}

	_, err := c.run(ctx, "--atleast-version="+want, name)
	if err == nil {
		return true, nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) || isExit(err) {
		return false, nil
	}
	return false, err
}

// Canonical turns a dotted version like "1.35" into "v1.35.0".
// It returns "" when the version is not semver-compatible.
func Canonical(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := toolexec.Command{Name: c.Binary, Args: args}
	if len(c.Path) > 0 {
		path := strings.Join(c.Path, string(os.PathListSeparator))
		if existing := os.Getenv("PKG_CONFIG_PATH"); existing != "" {
			path += string(os.PathListSeparator) + existing
		}
		cmd.Env = []string{"PKG_CONFIG_PATH=" + path}
	}

	runner := c.Runner
	if runner == nil {
		runner = toolexec.ExecRunner{}
	}

	res, err := runner.Run(ctx, cmd)
	if err != nil {
		if res != nil && res.ExitCode > 0 {
			return "", &exitError{code: res.ExitCode, output: string(res.Stderr)}
		}
		return "", fmt.Errorf("running %s: %w", cmd, err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func (c *Client) notFound(name, minVersion string, err error) error {
	var exit *exitError
	if errors.As(err, &exit) {
		return &NotFoundError{Name: name, MinVersion: minVersion, Output: exit.output}
	}
	// pkg-config itself is missing or could not start: the registry has no entry either way
	return &NotFoundError{Name: name, MinVersion: minVersion, Output: err.Error()}
}

type exitError struct {
	code   int
	output string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d: %s", e.code, strings.TrimSpace(e.output))
}

func isExit(err error) bool {
	var exit *exitError
	return errors.As(err, &exit)
}

func (p *Package) parseFlags() {
	for _, f := range p.CFlags {
		if dir, ok := strings.CutPrefix(f, "-I"); ok && dir != "" {
			p.IncludeDirs = append(p.IncludeDirs, dir)
		}
	}
	for _, f := range p.Libs {
		switch {
		case strings.HasPrefix(f, "-L") && len(f) > 2:
			p.LibDirs = append(p.LibDirs, f[2:])
		case strings.HasPrefix(f, "-l") && len(f) > 2:
			p.LinkNames = append(p.LinkNames, f[2:])
		}
	}
}
