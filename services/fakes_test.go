package services

import (
	"context"
	"os"
	"sync"

	"avatar-backend/models"
)

// stubEmbedder returns canned vectors. Texts without a canned vector get the unit
// vector, so everything stays at the same dimensionality.
type stubEmbedder struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	failWith  error
	failAfter int // fail once this many calls have succeeded; 0 means fail always
	calls     int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil && s.calls >= s.failAfter {
		return nil, s.failWith
	}
	s.calls++
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimension() int { return 2 }
func (s *stubEmbedder) Name() string   { return "stub" }

// flakyStore delegates to a MemoryStore but can be told to fail each operation.
type flakyStore struct {
	*MemoryStore
	failAdd    error
	failSearch error
	failDelete error
}

func (s *flakyStore) AddChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if s.failAdd != nil {
		return s.failAdd
	}
	return s.MemoryStore.AddChunks(ctx, chunks)
}

func (s *flakyStore) Search(ctx context.Context, vector []float32, threshold float64, count int) ([]models.ScoredChunk, error) {
	if s.failSearch != nil {
		return nil, s.failSearch
	}
	return s.MemoryStore.Search(ctx, vector, threshold, count)
}

func (s *flakyStore) DeleteFile(ctx context.Context, path string) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	return s.MemoryStore.DeleteFile(ctx, path)
}

// memBlobStore is an in-memory BlobStore. getHook, when set, runs before every Get
// and can mutate state to simulate an external writer racing the index.
type memBlobStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	getHook func(key string, gets int)
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte)}
}

func (s *memBlobStore) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

func (s *memBlobStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getHook != nil {
		s.getHook(key, s.gets)
	}
	data, ok := s.data[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (s *memBlobStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memBlobStore) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}
