package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docurag-worker/internal/config"
	"docurag-worker/internal/logger"

	"docurag-worker/models"
)

const workerSecretHeader = "X-Worker-Secret"

// Reporter posts terminal ingestion status to the companion web app.
// Delivery is best-effort: every failure is logged and swallowed so the
// callback can never mask the pipeline's own outcome.
type Reporter struct {
	baseURL string
	secret  string
	client  *http.Client
}

func NewReporter(cfg *config.Config) *Reporter {
	return &Reporter{
		baseURL: cfg.CallbackBaseURL,
		secret:  cfg.WorkerSecret,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type statusPayload struct {
	DocumentID   string `json:"document_id"`
	Status       string `json:"status"`
	ChunkCount   *int   `json:"chunk_count,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (r *Reporter) Report(ctx context.Context, docID string, status models.DocumentStatus, chunkCount int, errMsg string) {
	if r.baseURL == "" {
		logger.Warn("NEXTJS_API_URL not configured, skipping status update", "document_id", docID)
		return
	}

	payload := statusPayload{
		DocumentID:   docID,
		Status:       string(status),
		ErrorMessage: errMsg,
	}
	if status == models.StatusReady {
		payload.ChunkCount = &chunkCount
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode status update", "document_id", docID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/process", r.baseURL), bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build status update request", "document_id", docID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		req.Header.Set(workerSecretHeader, r.secret)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Error("Error updating document status", "document_id", docID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.Error("Failed to update document status", "document_id", docID, "status_code", resp.StatusCode, "response", string(respBody))
	}
}
