package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"pdfchat/internal/chunker"
	"pdfchat/internal/config"
	"pdfchat/internal/db"
	"pdfchat/internal/handlers"
	"pdfchat/internal/repositories"
	"pdfchat/internal/routes"
	"pdfchat/internal/services"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer wires configuration, clients, repositories, services and
// handlers into a ready-to-run HTTP server
func NewServer() (*http.Server, error) {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	openai := services.NewOpenAIClient(services.OpenAIConfig{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
	}, logger)

	extractor := services.NewExtractorClient(cfg.ExtractorURL, cfg.ExtractorTimeout)

	vectorRepo, err := initializeVectorRepository(cfg, openai, logger)
	if err != nil {
		return nil, err
	}

	textChunker, err := chunker.New(cfg.ChunkStrategy, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	sessions := repositories.NewSessionStore(logger)
	registry := repositories.NewDocumentRegistry(logger)

	documentService := services.NewDocumentService(registry, vectorRepo, extractor, textChunker, cfg.UploadDir, logger)
	chatService := services.NewChatService(sessions, registry, vectorRepo, openai, cfg.TopKResults, logger)

	h := &routes.Handlers{
		PDF:    handlers.NewPDFHandler(documentService, cfg.MaxFileSize, logger),
		Chat:   handlers.NewChatHandler(chatService, logger),
		Vector: handlers.NewVectorHandler(vectorRepo, cfg.VectorBackend, logger),
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Port)),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	logger.Printf("Configured: backend=%s model=%s chunks=%s/%d/%d topK=%d",
		cfg.VectorBackend, cfg.ChatModel, cfg.ChunkStrategy, cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopKResults)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: corsMiddleware(router),
	}, nil
}

// initializeVectorRepository builds the configured vector backend. The
// backend is chosen once at startup; a Pinecone index that cannot be
// reached is fatal, while an unreachable ChromaDB leaves the repository
// in degraded mode so the rest of the API stays up.
func initializeVectorRepository(cfg *config.Config, embedder repositories.Embedder, logger *log.Logger) (repositories.VectorRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.VectorBackend {
	case config.VectorBackendPinecone:
		client := db.NewPineconeClient(db.PineconeConfig{
			APIKey:     cfg.PineconeAPIKey,
			ControlURL: cfg.PineconeHost,
		})
		repo := repositories.NewPineconeVectorRepository(client, embedder, cfg.PineconeIndex, cfg.EmbeddingDimension, logger)

		if err := repo.Init(ctx); err != nil {
			return nil, fmt.Errorf("pinecone initialization failed: %w", err)
		}
		logger.Printf("✅ Pinecone index %s ready", cfg.PineconeIndex)
		return repo, nil

	case config.VectorBackendChroma:
		client := db.NewChromaClient(db.ChromaConfig{
			Host:     cfg.ChromaHost,
			Port:     cfg.ChromaPort,
			Tenant:   cfg.ChromaTenant,
			Database: cfg.ChromaDatabase,
		})
		repo := repositories.NewChromaVectorRepository(client, embedder, cfg.VectorCollection, cfg.EmbeddingDimension, logger)

		if err := repo.Init(ctx); err != nil {
			logger.Printf("⚠️  ChromaDB initialization failed: %v", err)
			logger.Println("   Vector operations will report the backend as unavailable")
			logger.Println("   Hint: Ensure ChromaDB is running (docker run -d -p 8000:8000 chromadb/chroma)")
		} else {
			logger.Printf("✅ ChromaDB collection %s ready", cfg.VectorCollection)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.VectorBackend)
	}
}
