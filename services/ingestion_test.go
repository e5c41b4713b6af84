package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docurag-worker/internal/config"
	"docurag-worker/models"
)

func testConfig() *config.Config {
	return &config.Config{
		ChunkSize:                 512,
		ChunkOverlap:              50,
		TopK:                      10,
		SimilarityThreshold:       0.7,
		EmbeddingDimensions:       768,
		ConfidenceHighThreshold:   0.85,
		ConfidenceMediumThreshold: 0.7,
	}
}

func newTestIngestion(cfg *config.Config, dl *fakeDownloader, emb Embedder, store *fakeStore, rep *fakeReporter) *IngestionPipeline {
	return NewIngestionPipeline(cfg, dl, NewExtractor(), emb, store, rep)
}

func TestProcessDocumentSuccess(t *testing.T) {
	cfg := testConfig()
	dl := &fakeDownloader{content: []byte(strings.Repeat("a", 1800))}
	emb := &fakeEmbedder{dims: 768}
	store := &fakeStore{}
	rep := &fakeReporter{}
	p := newTestIngestion(cfg, dl, emb, store, rep)

	count, err := p.ProcessDocument(context.Background(), "doc-1", "gs://bucket/file.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Fatalf("chunk count = %d, want 4", count)
	}
	if dl.bucket != "bucket" || dl.object != "file.txt" {
		t.Errorf("download target = %s/%s", dl.bucket, dl.object)
	}
	if got := store.pointCount(); got != count {
		t.Errorf("points stored = %d, want %d", got, count)
	}
	if len(store.ensured) != 1 || store.ensured[0] != "user_user_1" {
		t.Errorf("ensured collections = %v", store.ensured)
	}

	last := rep.last()
	if last.status != models.StatusReady || last.chunkCount != 4 || last.docID != "doc-1" {
		t.Errorf("reported %+v", last)
	}
}

func TestProcessDocumentBatchesUpserts(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0

	// 2500 characters at size 10 produce 250 chunks: two full batches
	// of 100 and a remainder of 50.
	dl := &fakeDownloader{content: []byte(strings.Repeat("b", 2500))}
	store := &fakeStore{}
	rep := &fakeReporter{}
	p := newTestIngestion(cfg, dl, &fakeEmbedder{dims: 768}, store, rep)

	count, err := p.ProcessDocument(context.Background(), "doc-2", "gs://bucket/big.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 250 {
		t.Fatalf("chunk count = %d, want 250", count)
	}
	if len(store.batches) != 3 {
		t.Fatalf("batch count = %d, want 3", len(store.batches))
	}
	if len(store.batches[0]) != 100 || len(store.batches[1]) != 100 {
		t.Errorf("full batch sizes = %d, %d, want 100 each", len(store.batches[0]), len(store.batches[1]))
	}
	if len(store.batches[2]) != 50 {
		t.Errorf("remainder batch size = %d, want 50", len(store.batches[2]))
	}
}

func TestProcessDocumentExactBatchMultiple(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0

	dl := &fakeDownloader{content: []byte(strings.Repeat("c", 2000))}
	store := &fakeStore{}
	p := newTestIngestion(cfg, dl, &fakeEmbedder{dims: 768}, store, &fakeReporter{})

	count, err := p.ProcessDocument(context.Background(), "doc-3", "gs://bucket/even.txt", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 200 {
		t.Fatalf("chunk count = %d, want 200", count)
	}
	if len(store.batches) != 2 {
		t.Fatalf("batch count = %d, want 2", len(store.batches))
	}
	if len(store.batches[1]) != 100 {
		t.Errorf("final batch size = %d, want 100", len(store.batches[1]))
	}
}

func TestProcessDocumentInvalidStorageURL(t *testing.T) {
	cases := []string{
		"s3://bucket/key",
		"gs://bucketonly",
		"gs://bucket/",
		"not-a-url",
	}

	for _, url := range cases {
		store := &fakeStore{}
		rep := &fakeReporter{}
		p := newTestIngestion(testConfig(), &fakeDownloader{}, &fakeEmbedder{dims: 768}, store, rep)

		_, err := p.ProcessDocument(context.Background(), "doc-1", url, "user-1")
		if !errors.Is(err, ErrInvalidStorageURL) {
			t.Errorf("%q: error = %v, want ErrInvalidStorageURL", url, err)
		}
		if rep.last().status != models.StatusFailed {
			t.Errorf("%q: reported status = %s, want failed", url, rep.last().status)
		}
	}
}

func TestProcessDocumentDownloadFailure(t *testing.T) {
	dl := &fakeDownloader{err: errors.New("object not found")}
	rep := &fakeReporter{}
	p := newTestIngestion(testConfig(), dl, &fakeEmbedder{dims: 768}, &fakeStore{}, rep)

	_, err := p.ProcessDocument(context.Background(), "doc-1", "gs://bucket/missing.txt", "user-1")
	if !errors.Is(err, ErrDownloadFailure) {
		t.Fatalf("error = %v, want ErrDownloadFailure", err)
	}

	last := rep.last()
	if last.status != models.StatusFailed || last.errMsg == "" {
		t.Errorf("reported %+v", last)
	}
}

func TestProcessDocumentEmptyExtraction(t *testing.T) {
	dl := &fakeDownloader{content: []byte("   \n  ")}
	rep := &fakeReporter{}
	p := newTestIngestion(testConfig(), dl, &fakeEmbedder{dims: 768}, &fakeStore{}, rep)

	_, err := p.ProcessDocument(context.Background(), "doc-1", "gs://bucket/blank.txt", "user-1")
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Fatalf("error = %v, want ErrEmptyExtraction", err)
	}
	if rep.last().status != models.StatusFailed {
		t.Errorf("reported status = %s, want failed", rep.last().status)
	}
}

func TestProcessDocumentEmbeddingFailureKeepsStoredBatches(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 0

	// Fail on chunk 150: the first batch of 100 is already stored and
	// stays in place, no rollback.
	dl := &fakeDownloader{content: []byte(strings.Repeat("d", 2000))}
	emb := &failAfterEmbedder{dims: 768, after: 149}
	store := &fakeStore{}
	rep := &fakeReporter{}
	p := newTestIngestion(cfg, dl, emb, store, rep)

	_, err := p.ProcessDocument(context.Background(), "doc-1", "gs://bucket/file.txt", "user-1")
	if !errors.Is(err, ErrEmbeddingService) {
		t.Fatalf("error = %v, want ErrEmbeddingService", err)
	}
	if got := store.pointCount(); got != 100 {
		t.Errorf("points stored before failure = %d, want 100", got)
	}
	if rep.last().status != models.StatusFailed {
		t.Errorf("reported status = %s, want failed", rep.last().status)
	}
}

func TestProcessDocumentUpsertFailure(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("connection reset")}
	rep := &fakeReporter{}
	p := newTestIngestion(testConfig(), &fakeDownloader{content: []byte("some text")}, &fakeEmbedder{dims: 768}, store, rep)

	_, err := p.ProcessDocument(context.Background(), "doc-1", "gs://bucket/file.txt", "user-1")
	if !errors.Is(err, ErrVectorStore) {
		t.Fatalf("error = %v, want ErrVectorStore", err)
	}
}

func TestParseStorageURL(t *testing.T) {
	bucket, object, err := parseStorageURL("gs://my-bucket/path/to/file.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "my-bucket" || object != "path/to/file.pdf" {
		t.Errorf("parsed %s / %s", bucket, object)
	}
}
