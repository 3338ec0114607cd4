package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"avatar-backend/models"

	"github.com/google/uuid"
)

// FileService owns the lifecycle of uploaded files: storing the blob, keeping the
// metadata index current, running ingestion, and tearing everything down again on
// delete.
type FileService struct {
	blobs     BlobStore
	index     *FileIndexStore
	store     DocumentStore
	ingestion *IngestionService
	now       func() time.Time
}

// NewFileService wires the upload/delete orchestration.
func NewFileService(blobs BlobStore, index *FileIndexStore, store DocumentStore, ingestion *IngestionService) *FileService {
	return &FileService{
		blobs:     blobs,
		index:     index,
		store:     store,
		ingestion: ingestion,
		now:       time.Now,
	}
}

// Upload stores the file, registers it in the index, and ingests it, in that order.
// The response's Success tracks whether the file is stored and searchable; the
// message always says which of the two failed when one did.
func (s *FileService) Upload(ctx context.Context, fileName, contentType string, tags []string, data []byte) models.UploadResponse {
	if len(data) == 0 {
		return models.UploadResponse{Message: "uploaded file is empty"}
	}

	path := "uploads/" + uuid.New().String() + "-" + filepath.Base(fileName)

	if err := s.blobs.Put(path, data); err != nil {
		return models.UploadResponse{Message: fmt.Sprintf("failed to store file: %v", err)}
	}

	err := s.index.Upsert(models.UploadedFile{
		Path:        path,
		Name:        fileName,
		ContentType: contentType,
		Tags:        tags,
		UploadedAt:  s.now(),
	})
	if err != nil {
		// The blob exists but is unregistered; Reconcile cannot see it either, so
		// undo the store rather than leak it.
		if delErr := s.blobs.Delete(path); delErr != nil {
			log.Printf("SERVICE: Could not undo blob store for %s: %v", path, delErr)
		}
		return models.UploadResponse{Message: fmt.Sprintf("failed to register file: %v", err)}
	}

	result := s.ingestion.Ingest(ctx, path, fileName, contentType, tags, data)
	if !result.Success {
		return models.UploadResponse{
			Path:    path,
			Message: "file uploaded, but indexing failed: " + result.Message,
		}
	}
	return models.UploadResponse{Success: true, Path: path, Message: result.Message}
}

// Delete removes the blob, the file's chunks, and its index entry. The three
// deletions are independent: one failing does not stop the others, and the
// aggregate result lists whatever went wrong.
func (s *FileService) Delete(ctx context.Context, path string) models.DeleteResult {
	result := models.DeleteResult{Path: path}

	if err := s.blobs.Delete(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("blob: %v", err))
		log.Printf("SERVICE: Failed to delete blob %s: %v", path, err)
	} else {
		result.BlobDeleted = true
	}

	if err := s.store.DeleteFile(ctx, path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("chunks: %v", err))
		log.Printf("SERVICE: Failed to delete chunks for %s: %v", path, err)
	} else {
		result.ChunksDeleted = true
	}

	if err := s.index.Remove(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("index: %v", err))
		log.Printf("SERVICE: Failed to remove index entry for %s: %v", path, err)
	} else {
		result.IndexDeleted = true
	}

	return result
}

// List returns the metadata index contents.
func (s *FileService) List() (models.FileListResponse, error) {
	files, err := s.index.List()
	if err != nil {
		return models.FileListResponse{}, err
	}
	if files == nil {
		files = []models.UploadedFile{}
	}
	return models.FileListResponse{Count: len(files), Files: files}, nil
}

// Reconcile finishes partial deletes: any index entry whose blob is gone gets its
// chunks and index entry removed. Safe to re-run; it only ever deletes orphans.
func (s *FileService) Reconcile(ctx context.Context) ([]models.DeleteResult, error) {
	files, err := s.index.List()
	if err != nil {
		return nil, err
	}

	var repaired []models.DeleteResult
	for _, file := range files {
		if s.blobs.Exists(file.Path) {
			continue
		}
		log.Printf("SERVICE: Reconcile found orphaned index entry %s", file.Path)
		result := models.DeleteResult{Path: file.Path, BlobDeleted: true}

		if err := s.store.DeleteFile(ctx, file.Path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("chunks: %v", err))
		} else {
			result.ChunksDeleted = true
		}
		if err := s.index.Remove(file.Path); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("index: %v", err))
		} else {
			result.IndexDeleted = true
		}
		repaired = append(repaired, result)
	}
	return repaired, nil
}

// ParseTags splits a comma-separated tag list, trimming whitespace and dropping
// empties.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
