package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/cbridge"
	"github.com/arc-language/cbridge/internal/toolexec"
	"github.com/arc-language/cbridge/internal/toolexec/toolexectest"
	"github.com/arc-language/cbridge/pkg/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return run(t, append([]string{"--config", writeConfig(t)}, args...)...)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library:\n  name: aria2\n  min_version: \"1.35.0\"\n"), 0644))
	return path
}

func TestPlanLibDir(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"libssl.a", "libaria2.a", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}

	out, err := execute(t, "plan", dir, "aria2")
	require.NoError(t, err)

	lines := strings.Fields(out)
	assert.Equal(t, []string{"aria2", "ssl"}, lines)
}

func TestPlanRejectsOneArg(t *testing.T) {
	_, err := execute(t, "plan", "/tmp")
	assert.Error(t, err)
}

func TestPlatformLibs(t *testing.T) {
	out, err := execute(t, "platform-libs", "windows")
	require.NoError(t, err)
	assert.Contains(t, out, "Target: windows")
	assert.Contains(t, out, "  ws2_32\n")
	assert.Contains(t, out, "  advapi32\n")

	out, err = execute(t, "platform-libs", "linux")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cbridge version")
}

// withFakeToolchain makes prepare compile with a runner that only touches outputs
func withFakeToolchain(t *testing.T) {
	t.Helper()
	orig := newBuilder
	newBuilder = func(cfg *core.Config) *cbridge.Builder {
		b := orig(cfg)
		b.Toolchain.CXX, b.Toolchain.AR = "c++", "ar"
		b.Toolchain.Runner = &toolexectest.Runner{Handler: func(cmd toolexec.Command) (*toolexec.Result, error) {
			for i, a := range cmd.Args {
				if a == "-o" {
					require.NoError(t, os.WriteFile(cmd.Args[i+1], nil, 0644))
				}
			}
			if cmd.Name == "ar" {
				require.NoError(t, os.WriteFile(cmd.Args[1], []byte("!<arch>\n"), 0644))
			}
			return toolexectest.OK("")
		}}
		return b
	}
	t.Cleanup(func() { newBuilder = orig })
}

func bridgeProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	for _, rel := range []string{"src/aria2_bridge.cpp", "include/aria2_bridge.hpp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.Dir(rel)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte("// "+rel+"\n"), 0644))
	}

	configPath = filepath.Join(dir, "cbridge.yaml")
	cfg := core.DefaultConfig()
	cfg.Bridge.Sources = []string{filepath.Join(dir, "src", "aria2_bridge.cpp")}
	cfg.Bridge.Headers = []string{filepath.Join(dir, "include", "aria2_bridge.hpp")}
	cfg.Bridge.OutDir = filepath.Join(dir, "build")
	cfg.Outputs.CgoFile = filepath.Join(dir, "zz_cbridge_cgo.go")
	cfg.Outputs.Stamp = filepath.Join(dir, "build", "cbridge.stamp")
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.TargetOS = "linux"
	require.NoError(t, core.SaveConfig(cfg, configPath))
	return dir, configPath
}

func distribution(t *testing.T, archives ...string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "include"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0755))
	for _, a := range archives {
		require.NoError(t, os.WriteFile(filepath.Join(root, "lib", a), nil, 0644))
	}
	return root
}

func directiveLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "cbridge:") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestPrepareTwiceEmitsSameDirectives(t *testing.T) {
	withFakeToolchain(t)
	_, configPath := bridgeProject(t)
	t.Setenv("LIBARIA2_DIR", distribution(t, "libaria2.a", "libssl.a"))

	out, err := run(t, "--config", configPath, "prepare")
	require.NoError(t, err)
	first := directiveLines(out)
	assert.Contains(t, first, "cbridge:link-lib=aria2")
	assert.Contains(t, first, "cbridge:link-lib=ssl")

	out, err = run(t, "--config", configPath, "prepare")
	require.NoError(t, err)
	assert.Contains(t, out, "bridge is up to date")
	assert.Equal(t, first, directiveLines(out))
}

func TestPrepareRerunsWhenOverrideChanges(t *testing.T) {
	withFakeToolchain(t)
	dir, configPath := bridgeProject(t)
	t.Setenv("LIBARIA2_DIR", distribution(t, "libaria2.a"))

	_, err := run(t, "--config", configPath, "prepare")
	require.NoError(t, err)

	t.Setenv("LIBARIA2_DIR", distribution(t, "libaria2.a", "libz.a"))
	out, err := run(t, "--config", configPath, "prepare")
	require.NoError(t, err)
	assert.NotContains(t, out, "bridge is up to date")
	assert.Contains(t, directiveLines(out), "cbridge:link-lib=z")

	cgo, err := os.ReadFile(filepath.Join(dir, "zz_cbridge_cgo.go"))
	require.NoError(t, err)
	assert.Contains(t, string(cgo), "-lz")
}

func TestInvalidExplicitConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library: [not, a, map]\n"), 0644))

	_, err := run(t, "--config", path, "platform-libs", "linux")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "platform-libs")
	assert.Error(t, err)
}
