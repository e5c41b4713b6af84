package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docurag-worker/internal/config"
	"docurag-worker/internal/logger"
	"docurag-worker/internal/vectorstore"
	"docurag-worker/models"
)

// upsertBatchSize bounds peak memory for large documents and limits the
// blast radius of a mid-document store failure.
const upsertBatchSize = 100

// Ingestion stages, in order. Any stage can transition to failed.
type ingestionStage string

const (
	stageDownloading ingestionStage = "downloading"
	stageExtracting  ingestionStage = "extracting"
	stageChunking    ingestionStage = "chunking"
	stageEmbedding   ingestionStage = "embedding"
	stageStoring     ingestionStage = "storing"
)

// IngestionPipeline orchestrates download, extraction, chunking,
// embedding and storage for one document, and reports the terminal
// status to the companion app.
type IngestionPipeline struct {
	cfg       *config.Config
	storage   Downloader
	extractor *Extractor
	embedder  Embedder
	store     VectorStore
	reporter  StatusReporter
}

func NewIngestionPipeline(cfg *config.Config, storage Downloader, extractor *Extractor, embedder Embedder, store VectorStore, reporter StatusReporter) *IngestionPipeline {
	return &IngestionPipeline{
		cfg:       cfg,
		storage:   storage,
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		reporter:  reporter,
	}
}

// ProcessDocument runs the full pipeline and returns the number of
// chunks stored. On failure the document is reported as failed with the
// error message and the error is returned to the caller. Points already
// upserted before a mid-pipeline failure are left in place.
func (p *IngestionPipeline) ProcessDocument(ctx context.Context, docID, storageURL, userID string) (int, error) {
	logger.Info("Starting document processing", "document_id", docID, "user_id", userID)

	stage := stageDownloading
	bucket, object, err := parseStorageURL(storageURL)
	if err != nil {
		return 0, p.fail(ctx, docID, stage, err)
	}

	content, err := p.storage.Download(ctx, bucket, object)
	if err != nil {
		return 0, p.fail(ctx, docID, stage, fmt.Errorf("%w: %v", ErrDownloadFailure, err))
	}
	logger.Debug("Downloaded document", "document_id", docID, "bytes", len(content))

	stage = stageExtracting
	pages, err := p.extractor.ExtractPages(content, storageURL)
	if err != nil {
		return 0, p.fail(ctx, docID, stage, err)
	}
	logger.Info("Extracted pages", "document_id", docID, "pages", len(pages))

	stage = stageChunking
	chunks := SplitPages(docID, pages, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	logger.Info("Created chunks", "document_id", docID, "chunks", len(chunks))

	stage = stageStoring
	collection := vectorstore.CollectionName(userID)
	if err := p.store.EnsureCollection(ctx, collection, p.cfg.EmbeddingDimensions); err != nil {
		return 0, p.fail(ctx, docID, stage, fmt.Errorf("%w: %v", ErrVectorStore, err))
	}

	stage = stageEmbedding
	batch := make([]vectorstore.Point, 0, upsertBatchSize)
	for _, chunk := range chunks {
		vector, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, p.fail(ctx, docID, stage, fmt.Errorf("%w: %v", ErrEmbeddingService, err))
		}

		pointID := uuid.NewString()
		batch = append(batch, vectorstore.Point{
			ID:     pointID,
			Vector: vector,
			Payload: vectorstore.Payload{
				DocID:      chunk.DocID,
				ChunkID:    pointID,
				Content:    chunk.Text,
				Page:       chunk.PageNumber,
				ChunkIndex: chunk.ChunkIndex,
			},
		})

		if len(batch) >= upsertBatchSize {
			stage = stageStoring
			if err := p.store.Upsert(ctx, collection, batch); err != nil {
				return 0, p.fail(ctx, docID, stage, fmt.Errorf("%w: %v", ErrVectorStore, err))
			}
			batch = batch[:0]
			stage = stageEmbedding
		}
	}

	if len(batch) > 0 {
		stage = stageStoring
		if err := p.store.Upsert(ctx, collection, batch); err != nil {
			return 0, p.fail(ctx, docID, stage, fmt.Errorf("%w: %v", ErrVectorStore, err))
		}
	}

	logger.Info("Stored vectors", "document_id", docID, "collection", collection, "count", len(chunks))
	p.reporter.Report(ctx, docID, models.StatusReady, len(chunks), "")
	return len(chunks), nil
}

func (p *IngestionPipeline) fail(ctx context.Context, docID string, stage ingestionStage, err error) error {
	logger.Error("Document processing failed", "document_id", docID, "stage", string(stage), "error", err)
	p.reporter.Report(ctx, docID, models.StatusFailed, 0, err.Error())
	return err
}

// parseStorageURL validates a gs://bucket/key reference.
func parseStorageURL(storageURL string) (bucket, object string, err error) {
	const scheme = "gs://"
	if !strings.HasPrefix(storageURL, scheme) {
		return "", "", ErrInvalidStorageURL
	}
	rest := storageURL[len(scheme):]
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", ErrInvalidStorageURL
	}
	return rest[:idx], rest[idx+1:], nil
}
