// Package unpack expands packed local library distributions (tarballs and Nix archives)
// into a cache directory so they can be used like a distribution tree.
package unpack

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"

	"github.com/arc-language/cbridge/internal/log"
	"go.uber.org/zap"
)

// Format identifies a packed distribution format
type Format string

const (
	FormatNone  Format = ""
	FormatTar   Format = "tar"
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	FormatNar   Format = "nar"
	FormatNarXz Format = "nar.xz"
)

// completeMarker is written once extraction finished
const completeMarker = ".cbridge-complete"

// Detect returns the packed format of path from its file name
func Detect(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return FormatTarXz
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	case strings.HasSuffix(name, ".nar.xz"):
		return FormatNarXz
	case strings.HasSuffix(name, ".nar"):
		return FormatNar
	default:
		return FormatNone
	}
}

// Unpack extracts src under cacheDir and returns the distribution root.
// An archive whose size and modification time match a finished extraction is not
// extracted again. When the archive holds a single top-level directory, that
// directory is returned.
func Unpack(src, cacheDir string) (string, error) {
	format := Detect(src)
	if format == FormatNone {
		return "", fmt.Errorf("unpack: unsupported archive %s", src)
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("unpack: %s is not a file", src)
	}

	destPath := filepath.Join(cacheDir, "dist", cacheKey(src, info))
	if _, err := os.Stat(filepath.Join(destPath, completeMarker)); err == nil {
		log.L().Debug("reusing unpacked distribution", zap.String("path", destPath))
		return distributionRoot(destPath)
	}

	// Start from a clean directory so a half-finished extraction is never reused
	if err := os.RemoveAll(destPath); err != nil {
		return "", fmt.Errorf("unpack: clearing %s: %w", destPath, err)
	}
	if err := os.MkdirAll(destPath, 0755); err != nil {
		return "", fmt.Errorf("unpack: creating destination directory: %w", err)
	}

	log.L().Debug("unpacking distribution",
		zap.String("src", src),
		zap.String("format", string(format)),
		zap.String("dest", destPath))

	if err := extract(src, destPath, format); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(destPath, completeMarker), nil, 0644); err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}

	return distributionRoot(destPath)
}

func extract(src, destPath string, format Format) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unpack: opening archive: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)

	switch format {
	case FormatTarXz, FormatNarXz:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("unpack: creating xz reader: %w", err)
		}
		r = xzReader
	case FormatTarGz:
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("unpack: creating gzip reader: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	switch format {
	case FormatNar, FormatNarXz:
		return extractNAR(r, destPath)
	default:
		return extractTar(r, destPath)
	}
}

func extractTar(r io.Reader, destPath string) error {
	tarReader := tar.NewReader(r)
	fileCount := 0

	for {
		hdr, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("unpack: reading tar entry: %w", err)
		}

		targetPath, err := safeJoin(destPath, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("unpack: creating directory %s: %w", targetPath, err)
			}
		case tar.TypeSymlink:
			if err := writeSymlink(destPath, targetPath, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(targetPath, tarReader, hdr.FileInfo().Mode(), hdr.Size); err != nil {
				return err
			}
			fileCount++
		default:
			// Hard links, devices and the like never appear in library distributions
		}
	}

	log.L().Debug("tar extraction complete", zap.Int("files", fileCount))
	return nil
}

func extractNAR(r io.Reader, destPath string) error {
	narReader := nar.NewReader(r)
	fileCount := 0

	for {
		hdr, err := narReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("unpack: reading NAR entry: %w", err)
		}

		targetPath, err := safeJoin(destPath, hdr.Path)
		if err != nil {
			return err
		}

		switch hdr.Mode.Type() {
		case os.ModeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("unpack: creating directory %s: %w", targetPath, err)
			}
		case os.ModeSymlink:
			if err := writeSymlink(destPath, targetPath, hdr.LinkTarget); err != nil {
				return err
			}
		case 0: // Regular file
			if err := writeFile(targetPath, narReader, hdr.Mode, hdr.Size); err != nil {
				return err
			}
			fileCount++
		}
	}

	log.L().Debug("NAR extraction complete", zap.Int("files", fileCount))
	return nil
}

func writeFile(targetPath string, r io.Reader, mode os.FileMode, size int64) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("unpack: creating parent directory: %w", err)
	}

	perm := os.FileMode(0644)
	if mode&0111 != 0 {
		perm = 0755
	}

	outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("unpack: creating file %s: %w", targetPath, err)
	}

	written, err := io.Copy(outFile, r)
	closeErr := outFile.Close()
	if err != nil {
		return fmt.Errorf("unpack: writing file %s: %w", targetPath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("unpack: writing file %s: %w", targetPath, closeErr)
	}
	if written != size {
		return fmt.Errorf("unpack: size mismatch for %s: wrote %d, expected %d", targetPath, written, size)
	}
	return nil
}

func writeSymlink(destPath, targetPath, linkTarget string) error {
	resolved := linkTarget
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(targetPath), linkTarget)
	}
	if !within(destPath, resolved) {
		return fmt.Errorf("unpack: symlink %s escapes the distribution", targetPath)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("unpack: creating parent directory: %w", err)
	}
	if err := os.Symlink(linkTarget, targetPath); err != nil {
		return fmt.Errorf("unpack: creating symlink: %w", err)
	}
	return nil
}

// safeJoin joins name under root, rejecting paths that climb out of it
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("unpack: entry %q escapes the distribution", name)
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// distributionRoot collapses a single top-level directory
func distributionRoot(destPath string) (string, error) {
	entries, err := os.ReadDir(destPath)
	if err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}

	var dirs []os.DirEntry
	for _, e := range entries {
		if e.Name() == completeMarker {
			continue
		}
		dirs = append(dirs, e)
	}

	if len(dirs) == 1 && dirs[0].IsDir() {
		// lib/ or include/ at top level means destPath already is the root
		switch dirs[0].Name() {
		case "lib", "include":
			return destPath, nil
		}
		return filepath.Join(destPath, dirs[0].Name()), nil
	}
	return destPath, nil
}

func cacheKey(src string, info os.FileInfo) string {
	base := filepath.Base(src)
	for _, ext := range []string{".tar.xz", ".txz", ".tar.gz", ".tgz", ".tar", ".nar.xz", ".nar"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	return fmt.Sprintf("%s-%x-%x", base, info.Size(), info.ModTime().UnixNano())
}
