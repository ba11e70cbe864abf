// pkg/bridge/triggers.go
package bridge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Triggers returns the inputs whose modification requires a re-run:
// the bridge sources, its headers and the orchestrator's config file.
func Triggers(sources, headers []string, entryPoint string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, s := range sources {
		add(s)
	}
	for _, h := range headers {
		add(h)
	}
	add(entryPoint)
	return out
}

// Stamp records the content hash of every trigger at the last successful run
type Stamp struct {
	Inputs     map[string]string `json:"inputs"`     // path -> sha256, "" when missing
	Directives []string          `json:"directives"` // directive stream of that run
	Override   string            `json:"override"`   // local distribution override, empty for the registry
	CreatedAt  string            `json:"created_at"`
}

// NewStamp hashes the current content of every trigger
func NewStamp(triggers []string) (*Stamp, error) {
	s := &Stamp{
		Inputs:    make(map[string]string, len(triggers)),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, t := range triggers {
		sum, err := hashFile(t)
		if err != nil {
			return nil, err
		}
		s.Inputs[t] = sum
	}
	return s, nil
}

// LoadStamp reads a stamp file
func LoadStamp(path string) (*Stamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Stamp
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing stamp %s: %w", path, err)
	}
	return &s, nil
}

// Encode writes the stamp as indented JSON
func (s *Stamp) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Save writes the stamp atomically
func (s *Stamp) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating stamp directory: %w", err)
	}

	f, err := os.Create(path + ".tmp")
	if err != nil {
		return fmt.Errorf("writing stamp: %w", err)
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("writing stamp: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("writing stamp: %w", err)
	}
	return os.Rename(f.Name(), path)
}

// Changed returns the triggers whose content differs from the stamp, sorted.
// A trigger absent from the stamp, or a missing stamp, counts as changed.
func Changed(stampPath string, triggers []string) ([]string, error) {
	prev, err := LoadStamp(stampPath)
	if err != nil {
		if os.IsNotExist(err) {
			return append([]string(nil), triggers...), nil
		}
		return nil, err
	}

	var changed []string
	for _, t := range triggers {
		sum, err := hashFile(t)
		if err != nil {
			return nil, err
		}
		old, ok := prev.Inputs[t]
		if !ok || old != sum || sum == "" {
			changed = append(changed, t)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

// hashFile returns the sha256 of path, "" when it does not exist
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
