// Package openai implements the embedding provider contract against the
// OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/metrics"
)

// Config holds provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// Embedder calls the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dims   int
}

// New creates an OpenAI embedder. BaseURL may point at any
// OpenAI-compatible endpoint.
func New(cfg Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
		dims:   cfg.Dimensions,
	}
}

// Embed vectorizes a single text. Provider failures are reported as
// domain.ErrEmbeddingProviderError so the search path can degrade.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dims,
	})
	metrics.ObserveEmbedding(err, resp.Usage.TotalTokens)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingProviderError, err)
	}
	if len(resp.Data) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: empty response", domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies the provider responds to a minimal request.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("embedding provider unhealthy: %w", err)
	}
	return nil
}
