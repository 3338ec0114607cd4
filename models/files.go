package models

import "time"

// UploadedFile is one entry in the file metadata index. The path is the storage key
// in the blob store; tags are copied onto chunks at ingestion time and are not
// re-synced afterwards.
type UploadedFile struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Tags        []string  `json:"tags,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// FileIndex is the denormalized list of all uploaded files, persisted as a single
// JSON document. Version is bumped on every write and checked on save so that two
// racing read-modify-write cycles cannot silently overwrite each other.
type FileIndex struct {
	Version int            `json:"version"`
	Files   []UploadedFile `json:"files"`
}
