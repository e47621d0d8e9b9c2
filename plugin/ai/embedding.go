package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingService generates embedding vectors for document chunks and queries.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type embeddingService struct {
	client *openai.Client
	config *Config
}

// NewEmbeddingService creates an EmbeddingService backed by an OpenAI-compatible endpoint.
func NewEmbeddingService(cfg *Config) (EmbeddingService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	cfg.applyDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &embeddingService{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
