package models

// DocumentStatus tracks a document through its processing lifecycle.
// The document record itself is owned by the companion web app; this
// worker only transitions the status through the callback API.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Page is one page of extracted text. Page numbers are 1-based and
// preserve the source document's order; pages that failed extraction
// are simply absent.
type Page struct {
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
}

// Chunk is a bounded span of a document's text, the unit of embedding
// and retrieval. ChunkIndex is 0-based in production order across the
// whole document.
type Chunk struct {
	Text       string `json:"text"`
	DocID      string `json:"doc_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
}
