package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"avatar-backend/models"
)

// IngestionService turns one uploaded file into stored, embedded chunks:
// extract -> chunk -> embed -> bulk insert. Chunks are accumulated in memory and
// written in a single store operation, so an interrupted or failed run never leaves
// a partially ingested file behind.
type IngestionService struct {
	extractor *Extractor
	embedder  Embedder
	store     DocumentStore

	chunkSize    int
	chunkOverlap int
}

// NewIngestionService wires the pipeline. Non-positive chunk parameters fall back
// to the defaults.
func NewIngestionService(extractor *Extractor, embedder Embedder, store DocumentStore, chunkSize, chunkOverlap int) *IngestionService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &IngestionService{
		extractor:    extractor,
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest runs the pipeline for one file. An unsupported content type is a success
// with a skip message, not a failure; the file stays uploaded either way.
// Re-ingesting the same path adds a fresh, independent set of chunks.
func (s *IngestionService) Ingest(ctx context.Context, filePath, fileName, contentType string, tags []string, buf []byte) models.IngestResult {
	if s.embedder == nil {
		return models.IngestResult{
			Message: "embedding provider is not configured",
		}
	}

	text, err := s.extractor.Extract(buf, contentType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedContentType) {
			log.Printf("INGEST: Skipping %s: content type %q is not indexable", filePath, contentType)
			return models.IngestResult{
				Success: true,
				Skipped: true,
				Message: fmt.Sprintf("file stored; RAG indexing skipped (unsupported content type %s)", contentType),
			}
		}
		return models.IngestResult{
			Message: fmt.Sprintf("text extraction failed: %v", err),
		}
	}

	chunks := SplitText(text, s.chunkSize, s.chunkOverlap)
	log.Printf("INGEST: Split %s into %d chunks.", filePath, len(chunks))
	if len(chunks) == 0 {
		return models.IngestResult{
			Success: true,
			Message: "file stored; no indexable text found",
		}
	}

	// Embed sequentially and accumulate; nothing is written until every chunk of
	// the file has a vector.
	records := make([]models.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return models.IngestResult{
				Message: fmt.Sprintf("could not embed chunk %d of %s: %v", i, filePath, err),
			}
		}
		records = append(records, models.DocumentChunk{
			FilePath:  filePath,
			FileName:  fileName,
			Tags:      tags,
			Content:   chunk,
			Embedding: vector,
		})
	}

	if err := s.store.AddChunks(ctx, records); err != nil {
		return models.IngestResult{
			Message: fmt.Sprintf("failed to store chunks for %s: %v", filePath, err),
		}
	}

	log.Printf("INGEST: Stored %d chunks for %s", len(records), filePath)
	return models.IngestResult{
		Success: true,
		Chunks:  len(records),
		Message: fmt.Sprintf("file stored and indexed (%d chunks)", len(records)),
	}
}
