package services

import (
	"context"

	"docurag-worker/internal/vectorstore"
	"docurag-worker/models"
)

// Collaborator contracts consumed by the pipelines. Concrete
// implementations (GCS, Gemini, Qdrant, the callback reporter) are
// constructed once in main and injected; tests substitute fakes.

// Downloader fetches raw document bytes from object storage.
type Downloader interface {
	Download(ctx context.Context, bucket, object string) ([]byte, error)
}

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the per-user collection of embedded chunks.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dims int) error
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
	Search(ctx context.Context, collection string, vector []float32, params vectorstore.SearchParams) ([]vectorstore.ScoredPoint, error)
}

// AnswerGenerator produces a grounded answer from assembled context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, contextText, question string) (string, error)
}

// StatusReporter is notified of terminal ingestion outcomes. It has no
// error return: reporting failures are logged by the implementation and
// never surfaced to the pipeline.
type StatusReporter interface {
	Report(ctx context.Context, docID string, status models.DocumentStatus, chunkCount int, errMsg string)
}
