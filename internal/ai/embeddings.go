package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"docurag-worker/internal/config"
)

// EmbeddingService maps text to fixed-dimension vectors. A single
// instance is constructed at process start and shared by both pipelines;
// ingestion and queries must embed with the same model or similarity
// scores are meaningless.
type EmbeddingService struct {
	client *genai.Client
	model  string
}

func NewEmbeddingService(ctx context.Context, cfg *config.Config) (*EmbeddingService, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &EmbeddingService{
		client: client,
		model:  cfg.EmbeddingsModel,
	}, nil
}

// Embed returns the embedding vector for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	model := s.client.EmbeddingModel(s.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (s *EmbeddingService) Close() error {
	return s.client.Close()
}
