package pkgconfig

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/cbridge/internal/toolexec"
	"github.com/arc-language/cbridge/internal/toolexec/toolexectest"
)

// fakeRegistry answers pkg-config queries for a single installed package
func fakeRegistry(name, version string) *toolexectest.Runner {
	return &toolexectest.Runner{Handler: func(cmd toolexec.Command) (*toolexec.Result, error) {
		args := cmd.Args
		if args[len(args)-1] != name {
			return toolexectest.Exit(1, "Package "+args[len(args)-1]+" was not found in the pkg-config search path.")
		}
		switch {
		case args[0] == "--exists":
			return toolexectest.OK("")
		case args[0] == "--modversion":
			return toolexectest.OK(version + "\n")
		case args[0] == "--cflags":
			return toolexectest.OK("-I/usr/include/aria2 -DFOO\n")
		case args[0] == "--libs":
			return toolexectest.OK("-L/usr/lib/x86_64-linux-gnu -laria2 -lssl\n")
		case strings.HasPrefix(args[0], "--atleast-version="):
			return toolexectest.Exit(1, "")
		}
		return toolexectest.Exit(2, "unexpected args")
	}}
}

func TestProbeFound(t *testing.T) {
	c := &Client{Binary: "pkg-config", Runner: fakeRegistry("libaria2", "1.37.0")}

	pkg, err := c.Probe(context.Background(), "libaria2", "1.35.0")
	require.NoError(t, err)

	assert.Equal(t, "1.37.0", pkg.Version)
	assert.Equal(t, []string{"/usr/include/aria2"}, pkg.IncludeDirs)
	assert.Equal(t, []string{"/usr/lib/x86_64-linux-gnu"}, pkg.LibDirs)
	assert.Equal(t, []string{"aria2", "ssl"}, pkg.LinkNames)
	assert.Equal(t, []string{"-I/usr/include/aria2", "-DFOO"}, pkg.CFlags)
}

func TestProbeMissing(t *testing.T) {
	c := &Client{Binary: "pkg-config", Runner: fakeRegistry("libcurl", "8.0.0")}

	_, err := c.Probe(context.Background(), "libaria2", "1.35.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, nf.Found)
	assert.Contains(t, nf.Error(), "was not found")
}

func TestProbeTooOld(t *testing.T) {
	c := &Client{Binary: "pkg-config", Runner: fakeRegistry("libaria2", "1.34")}

	_, err := c.Probe(context.Background(), "libaria2", "1.35.0")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "1.34", nf.Found)
	assert.Equal(t, "1.35.0", nf.MinVersion)
}

func TestProbeNonSemverFallsBackToAtLeast(t *testing.T) {
	runner := fakeRegistry("libaria2", "1.35.0.1")
	c := &Client{Binary: "pkg-config", Runner: runner}

	_, err := c.Probe(context.Background(), "libaria2", "1.35.0")
	require.True(t, errors.Is(err, ErrNotFound))

	var sawAtLeast bool
	for _, call := range runner.Calls {
		if strings.HasPrefix(call.Args[0], "--atleast-version=") {
			sawAtLeast = true
		}
	}
	assert.True(t, sawAtLeast)
}

func TestProbeWithoutMinVersion(t *testing.T) {
	c := &Client{Binary: "pkg-config", Runner: fakeRegistry("libaria2", "0.1")}
	_, err := c.Probe(context.Background(), "libaria2", "")
	assert.NoError(t, err)
}

func TestProbeMissingBinary(t *testing.T) {
	runner := &toolexectest.Runner{Handler: func(cmd toolexec.Command) (*toolexec.Result, error) {
		return &toolexec.Result{ExitCode: -1}, errors.New(`exec: "pkg-config": executable file not found in $PATH`)
	}}
	c := &Client{Binary: "pkg-config", Runner: runner}

	_, err := c.Probe(context.Background(), "libaria2", "1.35.0")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProbeSetsSearchPath(t *testing.T) {
	t.Setenv("PKG_CONFIG_PATH", "")
	runner := fakeRegistry("libaria2", "1.37.0")
	c := &Client{Binary: "pkg-config", Path: []string{"/opt/a", "/opt/b"}, Static: true, Runner: runner}

	_, err := c.Probe(context.Background(), "libaria2", "")
	require.NoError(t, err)

	require.NotEmpty(t, runner.Calls)
	assert.Contains(t, runner.Calls[0].Env[0], "/opt/a")
	assert.Equal(t, []string{"--libs", "--static", "libaria2"}, runner.Calls[len(runner.Calls)-1].Args)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v1.35.0", Canonical("1.35.0"))
	assert.Equal(t, "v1.35.0", Canonical("1.35"))
	assert.Equal(t, "v1.0.0", Canonical("v1"))
	assert.Equal(t, "", Canonical("1.35.0.1"))
	assert.Equal(t, "", Canonical(""))
}
