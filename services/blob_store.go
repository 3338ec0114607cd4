package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is the key-value byte store uploads live in. Keys are slash-separated
// storage paths.
type BlobStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Exists(key string) bool
}

// LocalBlobStore keeps blobs as plain files under a root directory.
type LocalBlobStore struct {
	root string
}

// NewLocalBlobStore creates the root directory if needed and returns the store.
func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root directory not set")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for blob root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf("could not create blob root %s: %w", absRoot, err)
	}
	return &LocalBlobStore{root: absRoot}, nil
}

// resolve maps a storage key to a path inside the root. Keys that would escape the
// root directory are rejected.
func (s *LocalBlobStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleanPath := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(cleanPath, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q, attempts to escape blob root", key)
	}
	return cleanPath, nil
}

func (s *LocalBlobStore) Put(key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *LocalBlobStore) Get(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *LocalBlobStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalBlobStore) Exists(key string) bool {
	path, err := s.resolve(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
