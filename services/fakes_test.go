package services

import (
	"context"
	"errors"
	"sync"

	"docurag-worker/internal/vectorstore"
	"docurag-worker/models"
)

type fakeDownloader struct {
	content []byte
	err     error
	bucket  string
	object  string
}

func (f *fakeDownloader) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	f.bucket = bucket
	f.object = object
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type fakeEmbedder struct {
	dims  int
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dims), nil
}

// failAfterEmbedder fails once a number of chunks have been embedded.
type failAfterEmbedder struct {
	dims  int
	after int
	calls int
}

func (f *failAfterEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls > f.after {
		return nil, errors.New("quota exhausted")
	}
	return make([]float32, f.dims), nil
}

type fakeStore struct {
	mu sync.Mutex

	ensured        []string
	ensureErr      error
	batches        [][]vectorstore.Point
	upsertErr      error
	searchResults  []vectorstore.ScoredPoint
	searchErr      error
	lastCollection string
	lastVector     []float32
	lastParams     vectorstore.SearchParams
}

func (f *fakeStore) EnsureCollection(ctx context.Context, name string, dims int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, name)
	return nil
}

func (f *fakeStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]vectorstore.Point, len(points))
	copy(batch, points)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, vector []float32, params vectorstore.SearchParams) ([]vectorstore.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCollection = collection
	f.lastVector = vector
	f.lastParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeStore) pointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.batches {
		total += len(b)
	}
	return total
}

type reportCall struct {
	docID      string
	status     models.DocumentStatus
	chunkCount int
	errMsg     string
}

type fakeReporter struct {
	mu    sync.Mutex
	calls []reportCall
}

func (f *fakeReporter) Report(ctx context.Context, docID string, status models.DocumentStatus, chunkCount int, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reportCall{docID: docID, status: status, chunkCount: chunkCount, errMsg: errMsg})
}

func (f *fakeReporter) last() reportCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return reportCall{}
	}
	return f.calls[len(f.calls)-1]
}

type fakeLLM struct {
	answer       string
	err          error
	lastContext  string
	lastQuestion string
}

func (f *fakeLLM) GenerateAnswer(ctx context.Context, contextText, question string) (string, error) {
	f.lastContext = contextText
	f.lastQuestion = question
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}
