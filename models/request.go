package models

// ChatMessage is one prior conversation turn. Role is "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Message string        `json:"message" binding:"required"`
	History []ChatMessage `json:"history,omitempty" binding:"dive"`
}

// DeleteFileRequest is the body of DELETE /api/v1/files.
type DeleteFileRequest struct {
	Path string `json:"path" binding:"required"`
}
