// Package cache implements the content-addressed resolution cache.
//
// Generated documents (such as synthesized POM files) are stored under the
// SHA-256 hash of their content:
//
//	<root>/<first two hex chars>/<full hex hash>/<file name>
//
// Identical content always maps to the same path, so the cache can be shared
// between concurrent runs without locking: writers racing on the same entry
// write identical bytes.
package cache

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/mvnpack/pkg/errors"
)

// Store is a content-addressed file cache rooted at a directory.
type Store struct {
	root string
}

// New returns a store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns where content would be stored under fileName.
func (s *Store) Path(content []byte, fileName string) string {
	hash := Hash(content)
	return filepath.Join(s.root, hash[:2], hash, fileName)
}

// Put stores content under fileName and returns the file path. Storing the
// same content twice returns the same path and leaves the file untouched.
func (s *Store) Put(content []byte, fileName string) (string, error) {
	if err := errors.ValidateFileName(fileName); err != nil {
		return "", err
	}

	path := s.Path(content, fileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return path, nil
}

// Clear removes every cache entry.
func (s *Store) Clear() error {
	return os.RemoveAll(s.root)
}

// DefaultDir returns $XDG_CACHE_HOME/mvnpack, falling back to
// ~/.cache/mvnpack.
func DefaultDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "mvnpack"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "mvnpack"), nil
}
