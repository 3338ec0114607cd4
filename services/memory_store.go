package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"avatar-backend/models"
)

// MemoryStore is a brute-force cosine-similarity DocumentStore. It backs local
// development (VECTOR_BACKEND=memory) and the test suite; nothing survives a
// restart. The first inserted vector fixes the store's dimensionality.
type MemoryStore struct {
	mu     sync.RWMutex
	dim    int
	chunks []models.DocumentChunk
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddChunks validates every vector before touching state, so a rejected batch
// leaves the store unchanged.
func (s *MemoryStore) AddChunks(_ context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(chunks[0].Embedding)
	}
	for i, chunk := range chunks {
		if len(chunk.Embedding) != dim {
			return fmt.Errorf("chunk %d of %s: %w: got %d, store expects %d",
				i, chunk.FilePath, ErrDimensionMismatch, len(chunk.Embedding), dim)
		}
	}

	s.dim = dim
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Search scores every stored chunk against vector and returns the top matches at or
// above threshold, most similar first.
func (s *MemoryStore) Search(_ context.Context, vector []float32, threshold float64, count int) ([]models.ScoredChunk, error) {
	if count <= 0 {
		count = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dim != 0 && len(vector) != s.dim {
		return nil, fmt.Errorf("query vector: %w: got %d, store expects %d", ErrDimensionMismatch, len(vector), s.dim)
	}

	var scored []models.ScoredChunk
	for _, chunk := range s.chunks {
		sim := cosineSimilarity(vector, chunk.Embedding)
		if sim >= threshold {
			scored = append(scored, models.ScoredChunk{Content: chunk.Content, Similarity: sim})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > count {
		scored = scored[:count]
	}
	return scored, nil
}

// DeleteFile removes every chunk whose FilePath matches path.
func (s *MemoryStore) DeleteFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.FilePath != path {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	return nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// ChunksForFile returns copies of the chunks stored for path, in insertion order.
func (s *MemoryStore) ChunksForFile(path string) []models.DocumentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DocumentChunk
	for _, chunk := range s.chunks {
		if chunk.FilePath == path {
			out = append(out, chunk)
		}
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
