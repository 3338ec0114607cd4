package controller

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"avatar-backend/models"
	"avatar-backend/services"

	"github.com/gin-gonic/gin"
)

// FileController handles the HTTP requests for upload, listing, and deletion of
// source documents. It depends on the FileService for the actual orchestration.
type FileController struct {
	fileService *services.FileService
}

// NewFileController is a constructor function that creates a new FileController.
func NewFileController(fileService *services.FileService) *FileController {
	return &FileController{fileService: fileService}
}

// Upload is the Gin handler for POST /api/v1/files. It accepts a multipart form
// with a "file" part and an optional comma-separated "tags" field.
func (c *FileController) Upload(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded: " + err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	tags := services.ParseTags(ctx.PostForm("tags"))

	response := c.fileService.Upload(ctx.Request.Context(), header.Filename, contentType, tags, data)
	status := http.StatusCreated
	if !response.Success {
		status = http.StatusUnprocessableEntity
	}
	ctx.JSON(status, response)
}

// List is the Gin handler for GET /api/v1/files.
func (c *FileController) List(ctx *gin.Context) {
	response, err := c.fileService.List()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Delete is the Gin handler for DELETE /api/v1/files. The deletion is best-effort:
// the response reports per-resource outcomes instead of failing at the first error.
func (c *FileController) Delete(ctx *gin.Context) {
	var req models.DeleteFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result := c.fileService.Delete(ctx.Request.Context(), req.Path)
	status := http.StatusOK
	if !result.Complete() {
		status = http.StatusMultiStatus
	}
	ctx.JSON(status, result)
}

// Reconcile is the Gin handler for POST /api/v1/files/reconcile. It re-runs the
// cleanup for any partial delete left behind by an earlier failure.
func (c *FileController) Reconcile(ctx *gin.Context) {
	repaired, err := c.fileService.Reconcile(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Reconcile failed: " + err.Error()})
		return
	}
	if repaired == nil {
		repaired = []models.DeleteResult{}
	}
	ctx.JSON(http.StatusOK, gin.H{"repaired": repaired})
}
