package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Vector backend selectors
const (
	VectorBackendPinecone = "pinecone"
	VectorBackendChroma   = "chroma"
)

// Chunking strategies
const (
	ChunkStrategyWords     = "words"
	ChunkStrategyChars     = "chars"
	ChunkStrategySentences = "sentences"
)

// Config holds the full runtime configuration, loaded from environment
// variables (optionally seeded from a .env file). Every option has a
// default and can be overridden independently.
type Config struct {
	Port int

	// OpenAI
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
	MaxTokens          int
	Temperature        float64

	// Vector backend
	VectorBackend    string
	VectorCollection string
	PineconeAPIKey   string
	PineconeIndex    string
	PineconeHost     string
	ChromaHost       string
	ChromaPort       int
	ChromaTenant     string
	ChromaDatabase   string

	// Chunking / retrieval
	ChunkStrategy string
	ChunkSize     int
	ChunkOverlap  int
	TopKResults   int

	// Uploads
	UploadDir   string
	MaxFileSize int64

	// Extraction service
	ExtractorURL     string
	ExtractorTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is fine, env vars alone are a valid configuration
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getIntEnv("PORT", 8080),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension: getIntEnv("EMBEDDING_DIMENSION", 1536),
		ChatModel:          getEnv("CHAT_MODEL", "gpt-4o"),
		MaxTokens:          getIntEnv("MAX_TOKENS", 4096),
		Temperature:        getFloatEnv("TEMPERATURE", 0.7),

		VectorBackend:    getEnv("VECTOR_DB", VectorBackendPinecone),
		VectorCollection: getEnv("VECTOR_COLLECTION", "pdf_documents"),
		PineconeAPIKey:   os.Getenv("PINECONE_API_KEY"),
		PineconeIndex:    getEnv("PINECONE_INDEX", "pdfchat"),
		PineconeHost:     getEnv("PINECONE_HOST", "https://api.pinecone.io"),
		ChromaHost:       getEnv("CHROMA_HOST", "localhost"),
		ChromaPort:       getIntEnv("CHROMA_PORT", 8000),
		ChromaTenant:     getEnv("CHROMA_TENANT", "default_tenant"),
		ChromaDatabase:   getEnv("CHROMA_DATABASE", "default_database"),

		ChunkStrategy: getEnv("CHUNK_STRATEGY", ChunkStrategyWords),
		ChunkSize:     getIntEnv("CHUNK_SIZE", 500),
		ChunkOverlap:  getIntEnv("CHUNK_OVERLAP", 50),
		TopKResults:   getIntEnv("TOP_K_RESULTS", 5),

		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		MaxFileSize: getInt64Env("MAX_FILE_SIZE", 50<<20),

		ExtractorURL:     getEnv("EXTRACTOR_URL", "http://localhost:8000"),
		ExtractorTimeout: getDurationEnv("EXTRACTOR_TIMEOUT", 60*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.VectorBackend {
	case VectorBackendPinecone, VectorBackendChroma:
	default:
		return fmt.Errorf("invalid VECTOR_DB %q (expected %q or %q)",
			c.VectorBackend, VectorBackendPinecone, VectorBackendChroma)
	}

	switch c.ChunkStrategy {
	case ChunkStrategyWords, ChunkStrategyChars, ChunkStrategySentences:
	default:
		return fmt.Errorf("invalid CHUNK_STRATEGY %q", c.ChunkStrategy)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("TOP_K_RESULTS must be positive, got %d", c.TopKResults)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
