package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"avatar-backend/models"

	"google.golang.org/genai"
)

// Embedder maps a piece of text to a fixed-length vector. The same embedder instance
// is shared by ingestion and retrieval so both sides always use the same model and
// dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the vector length, or 0 before the first successful embed.
	Dimension() int
	Name() string
}

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text:v1.5"
)

// OllamaEmbedder calls a local Ollama instance's embeddings endpoint.
type OllamaEmbedder struct {
	httpClient *http.Client
	baseURL    string
	model      string

	mu  sync.Mutex
	dim int
}

// NewOllamaEmbedder creates an embedder against baseURL (default localhost:11434)
// using the given model (default nomic-embed-text).
func NewOllamaEmbedder(client *http.Client, baseURL, model string) *OllamaEmbedder {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaEmbedder{httpClient: client, baseURL: baseURL, model: model}
}

func (o *OllamaEmbedder) Name() string { return "ollama/" + o.model }

func (o *OllamaEmbedder) Dimension() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dim
}

// Embed generates an embedding using Ollama.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  o.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, errors.New("ollama returned an empty embedding")
	}

	o.mu.Lock()
	if o.dim == 0 {
		o.dim = len(ollamaResp.Embedding)
	}
	o.mu.Unlock()
	return ollamaResp.Embedding, nil
}

const defaultGeminiEmbedModel = "text-embedding-004"

// GeminiEmbedder generates embeddings through the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string

	mu  sync.Mutex
	dim int
}

// NewGeminiEmbedder wraps an existing Gemini client. The client itself fails to
// construct when GEMINI_API_KEY is missing, which is the fatal configuration error
// path for this provider.
func NewGeminiEmbedder(client *genai.Client, model string) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("gemini client is not configured")
	}
	if model == "" {
		model = defaultGeminiEmbedModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (g *GeminiEmbedder) Name() string { return "gemini/" + g.model }

func (g *GeminiEmbedder) Dimension() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dim
}

// Embed generates an embedding using the Gemini embeddings model.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed call failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini returned an empty embedding")
	}
	vector := resp.Embeddings[0].Values

	g.mu.Lock()
	if g.dim == 0 {
		g.dim = len(vector)
	}
	g.mu.Unlock()
	return vector, nil
}
