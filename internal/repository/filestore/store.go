// Package filestore keeps raw SBOM JSON documents as flat files on disk.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbomdex/sbomdex/internal/domain"
)

// Store is a directory of SBOM documents, one file per document.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sbom dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Check verifies the backing directory is still present and readable.
func (s *Store) Check() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat sbom dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sbom dir %s is not a directory", s.dir)
	}
	return nil
}

// Save writes a new document. Overwriting an existing file is refused with
// domain.ErrAlreadyExists so catalog rows and files cannot drift apart.
func (s *Store) Save(filename string, data []byte) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create sbom file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write sbom file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close sbom file: %w", err)
	}
	return nil
}

// Load reads a document's raw bytes, or domain.ErrNotFound.
func (s *Store) Load(filename string) ([]byte, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read sbom file: %w", err)
	}
	return data, nil
}

// LoadParsed reads and JSON-parses a document. A parse failure is the one
// hard error at this boundary and surfaces as domain.ErrMalformedDocument.
func (s *Store) LoadParsed(filename string) (map[string]any, error) {
	data, err := s.Load(filename)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedDocument, filename, err)
	}
	return doc, nil
}

// Delete removes a document, or returns domain.ErrNotFound.
func (s *Store) Delete(filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove sbom file: %w", err)
	}
	return nil
}

// Exists reports whether a document is stored.
func (s *Store) Exists(filename string) bool {
	path, err := s.path(filename)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// List returns the stored document filenames in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read sbom dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// path validates a user-supplied filename and resolves it under the store
// directory. Path separators and traversal are rejected, and documents must
// carry a .json extension.
func (s *Store) path(filename string) (string, error) {
	if filename == "" ||
		filename != filepath.Base(filename) ||
		strings.ContainsAny(filename, `/\`) ||
		filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: bad filename %q", domain.ErrInvalidInput, filename)
	}
	if !strings.HasSuffix(filename, ".json") {
		return "", fmt.Errorf("%w: filename %q must end in .json", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(s.dir, filename), nil
}
