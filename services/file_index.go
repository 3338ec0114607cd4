package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"avatar-backend/models"
)

// ErrVersionConflict reports that the index document changed between read and
// write. In-process writers are serialized by a mutex, so a conflict means another
// process touched the stored document.
var ErrVersionConflict = errors.New("file index version conflict")

const indexKey = "file-index.json"

// FileIndexStore manages the single serialized file-metadata document. Every
// mutation is a read-modify-write under a lock, with a compare-and-swap on the
// version field when the document is saved.
type FileIndexStore struct {
	mu    sync.Mutex
	blobs BlobStore
}

// NewFileIndexStore returns an index store backed by the given blob store.
func NewFileIndexStore(blobs BlobStore) *FileIndexStore {
	return &FileIndexStore{blobs: blobs}
}

// load reads the current index document. A missing document is an empty index.
func (s *FileIndexStore) load() (*models.FileIndex, error) {
	data, err := s.blobs.Get(indexKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.FileIndex{}, nil
		}
		return nil, fmt.Errorf("could not read file index: %w", err)
	}
	var index models.FileIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("could not parse file index: %w", err)
	}
	return &index, nil
}

// save writes the index back, bumping the version. expectedVersion is what load
// returned; if the stored document has moved past it the write is refused.
func (s *FileIndexStore) save(index *models.FileIndex, expectedVersion int) error {
	current, err := s.load()
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
	}

	index.Version = expectedVersion + 1
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize file index: %w", err)
	}
	return s.blobs.Put(indexKey, data)
}

// Upsert adds or replaces the entry for file.Path.
func (s *FileIndexStore) Upsert(file models.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range index.Files {
		if existing.Path == file.Path {
			index.Files[i] = file
			replaced = true
			break
		}
	}
	if !replaced {
		index.Files = append(index.Files, file)
	}
	return s.save(index, index.Version)
}

// Remove deletes the entry for path. Removing an absent path is a no-op.
func (s *FileIndexStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.load()
	if err != nil {
		return err
	}
	kept := index.Files[:0]
	for _, file := range index.Files {
		if file.Path != path {
			kept = append(kept, file)
		}
	}
	if len(kept) == len(index.Files) {
		return nil
	}
	index.Files = kept
	return s.save(index, index.Version)
}

// List returns the current index entries.
func (s *FileIndexStore) List() ([]models.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.load()
	if err != nil {
		return nil, err
	}
	return index.Files, nil
}
