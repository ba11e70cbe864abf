// pkg/archive/archive.go
package archive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/cbridge/pkg/core"
)

const (
	// Prefix every static archive name starts with
	Prefix = "lib"
	// Suffix every static archive name ends with
	Suffix = ".a"
)

// Candidate is an archive found while scanning a library directory
type Candidate struct {
	FilePath string // Path of the archive file
	Name     string // Library name extracted from the file name (e.g., "ssl")
}

// ExtractLibraryName returns <name> for a file named exactly lib<name>.a.
// Matching is case-sensitive; any other file name yields false.
func ExtractLibraryName(fileName string) (string, bool) {
	if !strings.HasPrefix(fileName, Prefix) || !strings.HasSuffix(fileName, Suffix) {
		return "", false
	}
	name := fileName[len(Prefix) : len(fileName)-len(Suffix)]
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}

// Scan returns the archives in dir in directory enumeration order.
// Entries that are not regular files (after following symlinks) are skipped.
func Scan(dir string) ([]Candidate, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, &core.IOError{Op: "reading library directory", Path: dir, Err: err}
	}
	defer f.Close()

	// Readdirnames keeps the native order, os.ReadDir would sort
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, &core.IOError{Op: "reading library directory", Path: dir, Err: err}
	}

	var candidates []Candidate
	for _, fileName := range names {
		fullPath := filepath.Join(dir, fileName)
		if !isFile(fullPath) {
			continue
		}

		name, ok := ExtractLibraryName(fileName)
		if !ok {
			continue
		}

		candidates = append(candidates, Candidate{
			FilePath: fullPath,
			Name:     name,
		})
	}

	return candidates, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
