package models

// Confidence is the coarse retrieval-quality signal attached to every
// answer. The thresholds that produce it are a cross-system contract
// shared with the front-end; see config.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ProcessRequest triggers document ingestion.
type ProcessRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	StorageURL string `json:"storage_url" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
}

type ProcessResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

// QueryRequest asks a question over the user's documents. DocumentIDs
// optionally restricts the search scope (match-any).
type QueryRequest struct {
	Query       string   `json:"query" binding:"required"`
	UserID      string   `json:"user_id" binding:"required"`
	DocumentIDs []string `json:"document_ids"`
}

// Source is a citation returned to the caller. Text carries at most the
// first 300 characters of the chunk's content; the full content stays in
// the vector store.
type Source struct {
	DocID string  `json:"doc_id"`
	Page  int     `json:"page"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type QueryResponse struct {
	Answer     string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	Confidence Confidence `json:"confidence"`
	Tokens     int        `json:"tokens"`
}
