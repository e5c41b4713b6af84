package services

import "errors"

// Ingestion and retrieval failure taxonomy. Hard failures abort the
// pipeline, are reported against the document's status, and surface to
// the caller. vectorstore.ErrCollectionNotFound is the one soft case on
// the query path; status callback failures are logged and swallowed.
var (
	ErrInvalidStorageURL = errors.New("invalid storage URL format")
	ErrDownloadFailure   = errors.New("failed to download document")
	ErrCorruptDocument   = errors.New("invalid or corrupted PDF file")
	ErrPasswordProtected = errors.New("PDF is password-protected and cannot be processed")
	ErrEmptyExtraction   = errors.New("no text content could be extracted from the document")
	ErrEmbeddingService  = errors.New("embedding service failure")
	ErrVectorStore       = errors.New("vector store failure")
)
