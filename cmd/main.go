package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"docurag-worker/internal/ai"
	"docurag-worker/internal/config"
	"docurag-worker/internal/logger"
	"docurag-worker/internal/storage"
	"docurag-worker/internal/telemetry"
	"docurag-worker/internal/vectorstore"
	"docurag-worker/middleware"
	"docurag-worker/routes"
	"docurag-worker/services"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	logger.Info("Starting DocuRAG worker service",
		"version", version,
		"gcp_project", cfg.GCPProjectID,
		"vertex_location", cfg.VertexAILocation)

	shutdownTracer, err := telemetry.InitTracer("docurag-worker", cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	// Expensive external clients are constructed once here and shared
	// by every request.
	ctx := context.Background()

	gcsClient, err := storage.NewGCSClient(ctx)
	if err != nil {
		log.Fatal("Failed to create GCS client:", err)
	}
	defer gcsClient.Close()

	embedder, err := ai.NewEmbeddingService(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedding service:", err)
	}
	defer embedder.Close()

	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer geminiClient.Close()

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatal("Failed to connect to Qdrant:", err)
	}
	defer store.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	reporter := services.NewReporter(cfg)
	extractor := services.NewExtractor()

	ingestion := services.NewIngestionPipeline(cfg, gcsClient, extractor, embedder, store, reporter)
	retrieval := services.NewRetrievalPipeline(cfg, embedder, store, geminiClient)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.TracingMiddleware("docurag-worker"))
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version})
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	routes.SetupWorkerRoutes(router, authMiddleware, ingestion, retrieval)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
