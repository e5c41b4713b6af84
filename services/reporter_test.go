package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"docurag-worker/internal/config"
	"docurag-worker/models"
)

type recordedCallback struct {
	path   string
	secret string
	body   map[string]any
}

func callbackServer(t *testing.T, statusCode int) (*httptest.Server, *[]recordedCallback) {
	t.Helper()
	var calls []recordedCallback
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("reading callback body: %v", err)
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decoding callback body %q: %v", raw, err)
		}
		calls = append(calls, recordedCallback{
			path:   r.URL.Path,
			secret: r.Header.Get("X-Worker-Secret"),
			body:   body,
		})
		w.WriteHeader(statusCode)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestReporterReadyPayload(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusOK)
	r := NewReporter(&config.Config{CallbackBaseURL: srv.URL, WorkerSecret: "s3cret"})

	r.Report(context.Background(), "doc-1", models.StatusReady, 42, "")

	if len(*calls) != 1 {
		t.Fatalf("callback count = %d, want 1", len(*calls))
	}
	call := (*calls)[0]
	if call.path != "/api/process" {
		t.Errorf("path = %q, want /api/process", call.path)
	}
	if call.secret != "s3cret" {
		t.Errorf("secret header = %q", call.secret)
	}
	if call.body["document_id"] != "doc-1" || call.body["status"] != "ready" {
		t.Errorf("body = %v", call.body)
	}
	if got := call.body["chunk_count"]; got != float64(42) {
		t.Errorf("chunk_count = %v, want 42", got)
	}
	if _, ok := call.body["error_message"]; ok {
		t.Errorf("error_message present on success payload: %v", call.body)
	}
}

func TestReporterFailedPayload(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusOK)
	r := NewReporter(&config.Config{CallbackBaseURL: srv.URL})

	r.Report(context.Background(), "doc-2", models.StatusFailed, 0, "download failure: 404")

	call := (*calls)[0]
	if call.body["status"] != "failed" || call.body["error_message"] != "download failure: 404" {
		t.Errorf("body = %v", call.body)
	}
	if _, ok := call.body["chunk_count"]; ok {
		t.Errorf("chunk_count present on failure payload: %v", call.body)
	}
	if call.secret != "" {
		t.Errorf("secret header sent without configuration: %q", call.secret)
	}
}

func TestReporterSwallowsServerError(t *testing.T) {
	srv, calls := callbackServer(t, http.StatusInternalServerError)
	r := NewReporter(&config.Config{CallbackBaseURL: srv.URL})

	r.Report(context.Background(), "doc-3", models.StatusReady, 1, "")

	if len(*calls) != 1 {
		t.Fatalf("callback count = %d, want 1", len(*calls))
	}
}

func TestReporterSkipsWhenUnconfigured(t *testing.T) {
	r := NewReporter(&config.Config{})
	// Must not panic or attempt network I/O.
	r.Report(context.Background(), "doc-4", models.StatusReady, 1, "")
}

func TestReporterSwallowsConnectionError(t *testing.T) {
	srv, _ := callbackServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	r := NewReporter(&config.Config{CallbackBaseURL: url})
	r.Report(context.Background(), "doc-5", models.StatusReady, 1, "")
}
