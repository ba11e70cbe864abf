package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/cbridge/pkg/core"
)

func TestExtractLibraryName(t *testing.T) {
	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"libfoo.a", "foo", true},
		{"libaria2.a", "aria2", true},
		{"libssl.a", "ssl", true},
		{"libstdc++.a", "stdc++", true},
		{"libfoo.so", "", false},
		{"foo.a", "", false},
		{"lib.a", "", false},
		{"libfoo.a.bak", "", false},
		{"xlibfoo.a", "", false},
		{"LIBfoo.a", "", false},
		{"libfoo.A", "", false},
		{"libfoo.dylib", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := ExtractLibraryName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanSkipsNonFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libssl.a")
	touch(t, dir, "libcrypto.a")
	touch(t, dir, "libz.so")
	touch(t, dir, "README")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "libdir.a"), 0755))

	candidates, err := Scan(dir)
	require.NoError(t, err)

	var names []string
	for _, c := range candidates {
		names = append(names, c.Name)
		assert.Equal(t, filepath.Join(dir, "lib"+c.Name+".a"), c.FilePath)
	}
	assert.ElementsMatch(t, []string{"ssl", "crypto"}, names)
}

func TestScanFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "libreal.a")
	if err := os.Symlink(filepath.Join(dir, "libreal.a"), filepath.Join(dir, "liblink.a")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	candidates, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIO))

	var ioErr *core.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("!<arch>\n"), 0644))
}
