package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CBRIDGE_CACHE_DIR", "")
	t.Setenv("CBRIDGE_TARGET_OS", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "aria2", cfg.Library.Name)
	assert.Equal(t, "libaria2", cfg.Library.PkgConfig)
	assert.Equal(t, "1.35.0", cfg.Library.MinVersion)
	assert.Equal(t, "LIBARIA2_DIR", cfg.OverrideEnv)
	assert.Len(t, cfg.Bridge.Headers, 2)
	assert.Empty(t, cfg.Path)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
library:
  name: curl
  pkgconfig: libcurl
  min_version: "8.0"
bridge:
  name: curl_bridge
  sources: [src/curl_bridge.cpp]
override_env: LIBCURL_DIR
hints:
  apt: libcurl4-openssl-dev
`), 0644))
	t.Setenv("CBRIDGE_TARGET_OS", "windows")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "curl", cfg.Library.Name)
	assert.Equal(t, []string{"src/curl_bridge.cpp"}, cfg.Bridge.Sources)
	assert.Equal(t, "LIBCURL_DIR", cfg.OverrideEnv)
	assert.Equal(t, "libcurl4-openssl-dev", cfg.Hints["apt"])
	assert.Equal(t, "windows", cfg.TargetOS)
	// Unset keys keep their defaults
	assert.Equal(t, []string{"-std=c++14", "-O3"}, cfg.Bridge.Flags)

	spec, err := cfg.LibrarySpec()
	require.NoError(t, err)
	assert.Equal(t, "curl>=8.0", spec.String())
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cbridge.yaml")
	cfg := DefaultConfig()
	cfg.Library.MinVersion = "1.36.0"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "1.36.0", loaded.Library.MinVersion)
}

func TestOverrideFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CBRIDGE_TEST_DIR=/opt/from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CBRIDGE_TEST_DIR") })

	cfg := DefaultConfig()
	cfg.OverrideEnv = "CBRIDGE_TEST_DIR"
	assert.Equal(t, "/opt/from-dotenv", cfg.Override())
}

func TestOverrideEnvironmentWins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LIBARIA2_DIR", "/opt/aria2")
	assert.Equal(t, "/opt/aria2", DefaultConfig().Override())

	t.Setenv("LIBARIA2_DIR", "")
	assert.Empty(t, DefaultConfig().Override())
}

func TestNewLibrarySpec(t *testing.T) {
	spec, err := NewLibrarySpec("aria2", "", "")
	require.NoError(t, err)
	assert.Equal(t, "libaria2", spec.PkgConfigName())
	assert.Equal(t, "aria2", spec.String())

	_, err = NewLibrarySpec(" ", "", "")
	assert.Error(t, err)
	_, err = NewLibrarySpec("a/b", "", "")
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	nf := &DependencyNotFoundError{Library: "libaria2", MinVersion: "1.35.0", Hint: "sudo apt install libaria2-0-dev"}
	assert.True(t, errors.Is(nf, ErrDependencyNotFound))
	assert.Equal(t, "dependency not satisfied: libaria2 >= 1.35.0 can't be found! Run:  sudo apt install libaria2-0-dev", nf.Error())

	layout := &InvalidLayoutError{Root: "/opt/x", Missing: []string{"/opt/x/include"}}
	assert.True(t, errors.Is(layout, ErrInvalidLayout))
	assert.Contains(t, layout.Error(), "/opt/x/include")

	ioErr := &IOError{Op: "reading", Path: "/x", Err: os.ErrPermission}
	assert.True(t, errors.Is(ioErr, ErrIO))
	assert.True(t, errors.Is(ioErr, os.ErrPermission))

	ce := &CompilationError{Command: []string{"c++", "-c", "a.cpp"}, Output: "boom", Err: errors.New("exit status 1")}
	assert.True(t, errors.Is(ce, ErrCompilation))
	assert.Equal(t, "c++ -c a.cpp: exit status 1\nboom", ce.Error())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfigRejectsInvalidCgoPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outputs:\n  cgo_package: \"\"\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cgo_package")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Outputs.CgoPackage = "my-pkg"
	assert.Error(t, cfg.Validate())

	cfg.Outputs.CgoFile = ""
	assert.NoError(t, cfg.Validate())

	cfg.Bridge.Sources = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Library.Name = ""
	assert.Error(t, cfg.Validate())
}
