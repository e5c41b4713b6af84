package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"docurag-worker/internal/config"
	"docurag-worker/internal/logger"
	"docurag-worker/internal/vectorstore"
	"docurag-worker/models"
)

// sourceTextLimit caps how much chunk content is echoed back to the
// caller per citation. Display safeguard only; the full content stays
// in the vector store.
const sourceTextLimit = 300

const (
	noDocumentsAnswer = "No documents have been uploaded yet. Please upload some documents first."
	noResultsAnswer   = "I couldn't find any relevant information in your documents to answer this question. Please try rephrasing your question or upload more relevant documents."
)

// ConfidenceAdjuster post-processes the score-derived confidence using
// the generated answer text. Pluggable so the heuristic can be replaced
// without touching the pipeline.
type ConfidenceAdjuster func(answer string, base models.Confidence) models.Confidence

// hedgingPhrases mark answers where the model signalled it could not
// find the information, regardless of how well the chunks scored.
var hedgingPhrases = []string{
	"i cannot find",
	"can't find",
	"not mentioned",
	"no information",
}

// HedgingOverride drops confidence to Low when the answer contains any
// hedging phrase.
func HedgingOverride(answer string, base models.Confidence) models.Confidence {
	lower := strings.ToLower(answer)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return models.ConfidenceLow
		}
	}
	return base
}

// RetrievalPipeline answers questions over a user's document collection.
type RetrievalPipeline struct {
	cfg      *config.Config
	embedder Embedder
	store    VectorStore
	llm      AnswerGenerator
	adjust   ConfidenceAdjuster
}

func NewRetrievalPipeline(cfg *config.Config, embedder Embedder, store VectorStore, llm AnswerGenerator) *RetrievalPipeline {
	return &RetrievalPipeline{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		llm:      llm,
		adjust:   HedgingOverride,
	}
}

// SetConfidenceAdjuster replaces the default hedging heuristic.
func (p *RetrievalPipeline) SetConfidenceAdjuster(adjust ConfidenceAdjuster) {
	p.adjust = adjust
}

// QueryDocuments runs the full retrieval pipeline. A missing collection
// and an empty result set are soft outcomes returned as low-confidence
// answers; every other failure propagates.
func (p *RetrievalPipeline) QueryDocuments(ctx context.Context, query, userID string, docIDs []string) (*models.QueryResponse, error) {
	logger.Info("Processing query", "user_id", userID)

	queryVector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}

	collection := vectorstore.CollectionName(userID)
	results, err := p.store.Search(ctx, collection, queryVector, vectorstore.SearchParams{
		TopK:           p.cfg.TopK,
		ScoreThreshold: p.cfg.SimilarityThreshold,
		DocIDs:         docIDs,
	})
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return softResponse(noDocumentsAnswer), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrVectorStore, err)
	}

	if len(results) == 0 {
		return softResponse(noResultsAnswer), nil
	}
	logger.Info("Found relevant chunks", "user_id", userID, "count", len(results))

	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, models.Source{
			DocID: r.Payload.DocID,
			Page:  r.Payload.Page,
			Score: r.Score,
			Text:  truncate(r.Payload.Content, sourceTextLimit),
		})
	}

	contextText := buildContext(results)

	answer, err := p.llm.GenerateAnswer(ctx, contextText, query)
	if err != nil {
		return nil, err
	}

	confidence := p.adjust(answer, p.confidenceFromScores(results))

	// Token estimate is a word-count approximation, not a tokenizer
	// count. Downstream consumers calibrate against this, so keep it.
	tokens := len(strings.Fields(answer)) + len(strings.Fields(contextText))

	logger.Info("Generated response", "user_id", userID, "confidence", string(confidence))

	return &models.QueryResponse{
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
		Tokens:     tokens,
	}, nil
}

// buildContext renders the citation-tagged context, one block per hit
// in rank order.
func buildContext(results []vectorstore.ScoredPoint) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		pageInfo := ""
		if r.Payload.Page > 0 {
			pageInfo = fmt.Sprintf(" (Page %d)", r.Payload.Page)
		}
		parts = append(parts, fmt.Sprintf("[Source %d]%s:\n%s", i+1, pageInfo, r.Payload.Content))
	}
	return strings.Join(parts, "\n\n")
}

// confidenceFromScores derives the base confidence from the mean
// similarity of the retrieved results.
func (p *RetrievalPipeline) confidenceFromScores(results []vectorstore.ScoredPoint) models.Confidence {
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	mean := sum / float64(len(results))

	switch {
	case mean >= p.cfg.ConfidenceHighThreshold:
		return models.ConfidenceHigh
	case mean >= p.cfg.ConfidenceMediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func softResponse(answer string) *models.QueryResponse {
	return &models.QueryResponse{
		Answer:     answer,
		Sources:    []models.Source{},
		Confidence: models.ConfidenceLow,
		Tokens:     0,
	}
}

// truncate keeps the first limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
