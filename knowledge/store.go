// Package knowledge manages the knowledge base directory. The crew only
// needs to know whether it holds any files.
package knowledge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

// ErrInvalidName is returned for names that would escape the directory.
var ErrInvalidName = errors.New("invalid file name")

// Store is a flat directory of knowledge base files.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore opens dir, creating it when missing.
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create knowledge base directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes data under name, replacing any previous file.
func (s *Store) Save(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	s.logger.Info("Added file to knowledge base", "file", name, "bytes", len(data))
	return nil
}

// Read returns the content of name.
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// List returns the regular files in the store, sorted by name.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge base: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Used reports whether the knowledge base holds at least one file.
func (s *Store) Used() (bool, error) {
	names, err := s.List()
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// Delete removes name. Missing files are ignored.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	s.logger.Info("Removed file from knowledge base", "file", name)
	return nil
}

// Resolve returns the stored file best matching pattern. An exact name
// always wins; otherwise the best fuzzy match is returned with exact=false.
func (s *Store) Resolve(pattern string) (name string, exact bool, err error) {
	names, err := s.List()
	if err != nil {
		return "", false, err
	}
	for _, n := range names {
		if n == pattern {
			return n, true, nil
		}
	}

	matches := fuzzy.Find(pattern, names)
	if len(matches) == 0 {
		return "", false, fmt.Errorf("no knowledge base file matches %q", pattern)
	}
	return matches[0].Str, false, nil
}
