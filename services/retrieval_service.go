package services

import (
	"context"
	"log"
	"strings"
)

const (
	// DefaultMatchThreshold is the minimum cosine similarity a chunk must reach to
	// be used as context.
	DefaultMatchThreshold = 0.5
	// DefaultMatchCount caps how many chunks are retrieved per query.
	DefaultMatchCount = 5
)

// RetrievalService embeds a query and fetches the most similar chunks from the
// document store. Retrieval is a best-effort enhancement: every failure degrades to
// an empty context so answering can proceed ungrounded.
type RetrievalService struct {
	embedder Embedder
	store    DocumentStore

	matchThreshold float64
	matchCount     int
}

// NewRetrievalService creates a retrieval service. threshold <= 0 and count <= 0
// fall back to the defaults.
func NewRetrievalService(embedder Embedder, store DocumentStore, threshold float64, count int) *RetrievalService {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	if count <= 0 {
		count = DefaultMatchCount
	}
	return &RetrievalService{
		embedder:       embedder,
		store:          store,
		matchThreshold: threshold,
		matchCount:     count,
	}
}

// Retrieve returns the retrieved chunk texts joined with blank lines, most similar
// first. The empty string means "no grounding available" and is never an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query string) string {
	if s.embedder == nil || strings.TrimSpace(query) == "" {
		return ""
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("RETRIEVE: Failed to embed query, answering without context: %v", err)
		return ""
	}

	scored, err := s.store.Search(ctx, vector, s.matchThreshold, s.matchCount)
	if err != nil {
		log.Printf("RETRIEVE: Store search failed, answering without context: %v", err)
		return ""
	}
	if len(scored) == 0 {
		return ""
	}

	texts := make([]string, 0, len(scored))
	for _, chunk := range scored {
		texts = append(texts, chunk.Content)
	}
	log.Printf("RETRIEVE: Using %d chunks as context", len(texts))
	return strings.Join(texts, "\n\n")
}
