package models

// DocumentChunk is the unit of embedding and retrieval. Chunks are created during
// ingestion, are immutable once stored, and are deleted together with the file they
// were derived from.
type DocumentChunk struct {
	FilePath  string    `json:"file_path"`
	FileName  string    `json:"file_name"`
	Tags      []string  `json:"tags,omitempty"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// ScoredChunk is a retrieval hit: chunk text plus its cosine similarity to the query.
// Not persisted anywhere.
type ScoredChunk struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
