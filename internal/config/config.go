package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	Environment string
	CORSOrigins []string

	// GCP / Vertex AI
	GCPProjectID     string
	VertexAILocation string
	GeminiAPIKey     string
	EmbeddingsModel  string
	GeminiModel      string

	// Qdrant
	QdrantURL    string
	QdrantAPIKey string

	// Companion web app callback
	CallbackBaseURL string
	WorkerSecret    string

	// RAG pipeline
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	EmbeddingDimensions int

	// Confidence thresholds. The front-end duplicates these constants,
	// so the values must stay numerically identical to its copy.
	ConfidenceHighThreshold   float64
	ConfidenceMediumThreshold float64

	// Redis (request rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int

	// OpenTelemetry
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		GCPProjectID:     getEnv("GCP_PROJECT_ID", ""),
		VertexAILocation: getEnv("VERTEX_AI_LOCATION", "us-central1"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel:  getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-pro"),

		QdrantURL:    getEnv("QDRANT_URL", "localhost:6334"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		CallbackBaseURL: getEnv("NEXTJS_API_URL", ""),
		WorkerSecret:    getEnv("WORKER_SECRET", ""),

		ChunkSize:           getEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 50),
		TopK:                getEnvInt("TOP_K", 10),
		SimilarityThreshold: getEnvFloat64("SIMILARITY_THRESHOLD", 0.7),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),

		ConfidenceHighThreshold:   getEnvFloat64("CONFIDENCE_HIGH_THRESHOLD", 0.85),
		ConfidenceMediumThreshold: getEnvFloat64("CONFIDENCE_MEDIUM_THRESHOLD", 0.7),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields outside local development
	if cfg.Environment == "production" {
		if cfg.GCPProjectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID is required - set it in .env file")
		}
		if cfg.QdrantURL == "" {
			return nil, fmt.Errorf("QDRANT_URL is required - set it in .env file")
		}
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
		}
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
