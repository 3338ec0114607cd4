package models

// UploadResponse reports the outcome of an upload. Success refers to the file upload
// itself; Message distinguishes a fully indexed file from one whose indexing was
// skipped or failed.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// IngestResult is the internal outcome of one ingestion run.
type IngestResult struct {
	Success bool
	Skipped bool
	Chunks  int
	Message string
}

// DeleteResult aggregates the three independent deletions performed when a file is
// removed: the blob, its chunks, and its index entry.
type DeleteResult struct {
	Path          string   `json:"path"`
	BlobDeleted   bool     `json:"blob_deleted"`
	ChunksDeleted bool     `json:"chunks_deleted"`
	IndexDeleted  bool     `json:"index_deleted"`
	Errors        []string `json:"errors,omitempty"`
}

// Complete reports whether every deletion succeeded.
func (d *DeleteResult) Complete() bool {
	return d.BlobDeleted && d.ChunksDeleted && d.IndexDeleted
}

// QueryResponse is the body returned by POST /api/v1/query.
type QueryResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error,omitempty"`
}

// FileListResponse is the body returned by GET /api/v1/files.
type FileListResponse struct {
	Count int            `json:"count"`
	Files []UploadedFile `json:"files"`
}
