package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"avatar-backend/controller"
	"avatar-backend/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	// Gemini powers generation (and embeddings when selected below).
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")

	embedder := buildEmbedder(httpClient, geminiClient)
	log.Printf("Using embedding provider: %s", embedder.Name())

	store, closeStore := buildDocumentStore()
	defer closeStore()

	persona, err := services.LoadPersona(envOr("PERSONA_PATH", "persona.json"))
	if err != nil {
		log.Fatalf("FATAL: Failed to load persona: %v", err)
	}

	blobs, err := services.NewLocalBlobStore(envOr("BLOB_DIR", "./data"))
	if err != nil {
		log.Fatalf("FATAL: Failed to create blob store: %v", err)
	}

	extractor := services.NewExtractor(envInt("EXTRACT_WRAP_WIDTH", 0))
	ingestion := services.NewIngestionService(extractor, embedder, store,
		envInt("CHUNK_SIZE", services.DefaultChunkSize),
		envInt("CHUNK_OVERLAP", services.DefaultChunkOverlap))
	retrieval := services.NewRetrievalService(embedder, store,
		envFloat("MATCH_THRESHOLD", services.DefaultMatchThreshold),
		envInt("MATCH_COUNT", services.DefaultMatchCount))

	indexStore := services.NewFileIndexStore(blobs)
	fileService := services.NewFileService(blobs, indexStore, store, ingestion)
	ragService := services.NewRAGService(geminiClient, retrieval, persona, os.Getenv("CHAT_MODEL"))

	fileController := controller.NewFileController(fileService)
	chatController := controller.NewChatController(ragService)

	// Dropping a supported document into DROP_DIR ingests it like an upload.
	if dropDir := os.Getenv("DROP_DIR"); dropDir != "" {
		watcher := services.NewDropFolderWatcher(fileService)
		go watcher.Watch(ctx, dropDir)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Avatar API",
			"persona": persona.Name,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/files", fileController.Upload)
		apiV1.GET("/files", fileController.List)
		apiV1.DELETE("/files", fileController.Delete)
		apiV1.POST("/files/reconcile", fileController.Reconcile)
		apiV1.POST("/query", chatController.Query)
	}

	port := envOr("PORT", "8080")
	log.Printf("Avatar backend starting on http://localhost:%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// buildEmbedder picks the embedding provider. Ingestion and retrieval share the
// returned instance, which keeps both on the same model and dimensionality.
func buildEmbedder(httpClient *http.Client, geminiClient *genai.Client) services.Embedder {
	switch envOr("EMBEDDING_PROVIDER", "ollama") {
	case "gemini":
		embedder, err := services.NewGeminiEmbedder(geminiClient, os.Getenv("EMBED_MODEL"))
		if err != nil {
			log.Fatalf("FATAL: Failed to create Gemini embedder: %v", err)
		}
		return embedder
	case "ollama":
		return services.NewOllamaEmbedder(httpClient, os.Getenv("OLLAMA_URL"), os.Getenv("EMBED_MODEL"))
	default:
		log.Fatalf("FATAL: Unknown EMBEDDING_PROVIDER %q (want ollama or gemini)", os.Getenv("EMBEDDING_PROVIDER"))
		return nil
	}
}

// buildDocumentStore connects to Chroma, or falls back to the in-memory store for
// local development when VECTOR_BACKEND=memory.
func buildDocumentStore() (services.DocumentStore, func()) {
	if envOr("VECTOR_BACKEND", "chroma") == "memory" {
		log.Println("Using in-memory vector store (nothing survives a restart).")
		return services.NewMemoryStore(), func() {}
	}

	chromaClient, err := chromago.NewHTTPClient()
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}

	collection, err := getOrCreateCollection(chromaClient, envOr("CHROMA_COLLECTION", "avatar-documents"))
	if err != nil {
		log.Fatalf("FATAL: Failed to get or create collection: %v", err)
	}

	closer := func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}
	return services.NewChromaStore(collection, envInt("EMBED_DIM", 0)), closer
}

// getOrCreateCollection implements collection management using the v2 API.
func getOrCreateCollection(client chromago.Client, collectionName string) (chromago.Collection, error) {
	ctx := context.Background()

	log.Printf("Getting or creating collection '%s'...", collectionName)
	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "avatar document chunks"),
				chromago.NewStringAttribute("created_by", "avatar-backend"),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Successfully got/created collection '%s'", collectionName)
	return collection, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: Ignoring non-integer %s=%q", key, v)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: Ignoring non-numeric %s=%q", key, v)
	}
	return fallback
}
