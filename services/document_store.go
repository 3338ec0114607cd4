package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"avatar-backend/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
)

// ErrDimensionMismatch reports a vector whose length does not match the store's
// dimensionality. This is a configuration error (ingestion and query must use the
// same embedding model), never a silent bad result.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DocumentStore persists chunks with their vectors and answers similarity queries.
type DocumentStore interface {
	// AddChunks inserts all chunks in one bulk operation: either every chunk lands
	// or the call fails and none are considered committed.
	AddChunks(ctx context.Context, chunks []models.DocumentChunk) error

	// Search returns up to count chunks whose cosine similarity to vector is at
	// least threshold, most similar first.
	Search(ctx context.Context, vector []float32, threshold float64, count int) ([]models.ScoredChunk, error)

	// DeleteFile removes every chunk whose source file path matches path.
	DeleteFile(ctx context.Context, path string) error

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// ChromaStore implements DocumentStore on a ChromaDB collection (v2 API).
type ChromaStore struct {
	collection chromago.Collection
	// expectedDim, when positive, is validated against every vector before it is
	// sent to Chroma. Zero disables the check and lets Chroma enforce it.
	expectedDim int
}

// NewChromaStore wraps an existing Chroma collection.
func NewChromaStore(collection chromago.Collection, expectedDim int) *ChromaStore {
	return &ChromaStore{collection: collection, expectedDim: expectedDim}
}

func (s *ChromaStore) checkDim(vector []float32) error {
	if s.expectedDim > 0 && len(vector) != s.expectedDim {
		return fmt.Errorf("%w: got %d, store expects %d", ErrDimensionMismatch, len(vector), s.expectedDim)
	}
	return nil
}

// AddChunks bulk-inserts chunks into the collection with file metadata attached.
func (s *ChromaStore) AddChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))

	for i, chunk := range chunks {
		if err := s.checkDim(chunk.Embedding); err != nil {
			return fmt.Errorf("chunk %d of %s: %w", i, chunk.FilePath, err)
		}
		ids = append(ids, chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), i)))
		texts = append(texts, chunk.Content)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(chunk.Embedding))
		metadatas = append(metadatas, chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("file_path", chunk.FilePath),
			chromago.NewStringAttribute("file_name", chunk.FileName),
			chromago.NewStringAttribute("tags", strings.Join(chunk.Tags, ",")),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		))
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add chunk batch to chromadb: %w", err)
	}
	return nil
}

// Search embeds nothing itself; it queries Chroma with the given vector and converts
// cosine distances back to similarities before applying the threshold.
func (s *ChromaStore) Search(ctx context.Context, vector []float32, threshold float64, count int) ([]models.ScoredChunk, error) {
	if count <= 0 {
		count = 5
	}
	if err := s.checkDim(vector); err != nil {
		return nil, err
	}

	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(count),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	var scored []models.ScoredChunk
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		// Chroma reports cosine distance; similarity = 1 - distance.
		similarity := 1.0
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			similarity = 1.0 - float64(distanceGroups[0][i])
		}
		if similarity < threshold {
			continue
		}
		scored = append(scored, models.ScoredChunk{
			Content:    doc.ContentString(),
			Similarity: similarity,
		})
	}
	log.Printf("STORE: Chroma query returned %d chunks at or above %.2f", len(scored), threshold)
	return scored, nil
}

// DeleteFile removes all chunks for a file path via a metadata where-clause.
func (s *ChromaStore) DeleteFile(ctx context.Context, path string) error {
	where := chromago.EqString("file_path", path)
	return s.collection.Delete(ctx, chromago.WithWhereDelete(where))
}

// Count returns the number of chunks in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}
