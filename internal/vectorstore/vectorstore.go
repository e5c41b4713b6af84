package vectorstore

import "errors"

// ErrCollectionNotFound reports a search against a collection that has
// never been created. The retrieval pipeline converts it into a soft
// "no documents uploaded yet" answer instead of an error.
var ErrCollectionNotFound = errors.New("collection not found")

// Payload is the metadata stored alongside each vector and returned on
// search hits.
type Payload struct {
	DocID      string
	ChunkID    string
	Content    string
	Page       int
	ChunkIndex int
}

// Point is one embedded chunk ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit with its cosine similarity score.
type ScoredPoint struct {
	Payload Payload
	Score   float64
}

// SearchParams bounds a similarity search. DocIDs, when non-empty,
// restricts hits to points whose doc_id matches any of the ids.
type SearchParams struct {
	TopK           int
	ScoreThreshold float64
	DocIDs         []string
}
