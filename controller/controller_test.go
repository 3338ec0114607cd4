package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"avatar-backend/models"
	"avatar-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitEmbedder struct{}

func (unitEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1, 0}, nil }
func (unitEmbedder) Dimension() int                                   { return 2 }
func (unitEmbedder) Name() string                                     { return "unit" }

type cannedRAG struct {
	answer string
}

func (c cannedRAG) Respond(_ context.Context, _ string, _ []models.ChatMessage) (string, error) {
	return c.answer, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := services.NewMemoryStore()
	blobs, err := services.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	index := services.NewFileIndexStore(blobs)
	ingestion := services.NewIngestionService(services.NewExtractor(0), unitEmbedder{}, store, 50, 10)
	fileService := services.NewFileService(blobs, index, store, ingestion)

	fileController := NewFileController(fileService)
	chatController := NewChatController(cannedRAG{answer: "Happy to help."})

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/files", fileController.Upload)
	api.GET("/files", fileController.List)
	api.DELETE("/files", fileController.Delete)
	api.POST("/files/reconcile", fileController.Reconcile)
	api.POST("/query", chatController.Query)
	return router, store
}

func multipartUpload(t *testing.T, name, contentType, tags string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)

	if tags != "" {
		require.NoError(t, writer.WriteField("tags", tags))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadListDeleteFlow(t *testing.T) {
	router, store := newTestRouter(t)

	req := multipartUpload(t, "bio.txt", "text/plain", "bio, personal",
		[]byte(strings.Repeat("everything worth knowing about this person ", 5)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.True(t, upload.Success)
	require.NotEmpty(t, upload.Path)
	assert.NotEmpty(t, store.ChunksForFile(upload.Path))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.FileListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, []string{"bio", "personal"}, list.Files[0].Tags)

	body, _ := json.Marshal(models.DeleteFileRequest{Path: upload.Path})
	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/files", bytes.NewReader(body))
	delReq.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, delReq)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, store.ChunksForFile(upload.Path))
}

func TestUploadUnsupportedContentType(t *testing.T) {
	router, store := newTestRouter(t)

	req := multipartUpload(t, "pic.png", "image/png", "", []byte{0x89, 0x50, 0x4e, 0x47})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.True(t, upload.Success)
	assert.Contains(t, upload.Message, "skipped")

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/files", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(models.QueryRequest{
		Message: "What is the refund policy?",
		History: []models.ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Happy to help.", resp.Answer)
}

func TestQueryRequiresMessage(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(`{"history": []}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
