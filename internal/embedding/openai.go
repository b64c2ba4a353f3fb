// Package embedding builds the text embedders used to index and query
// documents: the OpenAI-compatible client from langchaingo, an offline
// hashing embedder and a rate limiting wrapper.
package embedding

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrMissingAPIKey indicates that no API key was supplied for a remote embedder.
var ErrMissingAPIKey = errors.New("missing API key")

// OpenAIConfig configures the OpenAI-compatible embeddings client.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	BatchSize int
	// RequestsPerSecond caps embedding API requests. Zero means unlimited.
	RequestsPerSecond float64
}

// NewOpenAI creates an embedder backed by the OpenAI embeddings API.
func NewOpenAI(cfg OpenAIConfig) (embeddings.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	var embOpts []embeddings.Option
	if cfg.BatchSize > 0 {
		embOpts = append(embOpts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	embedder, err := embeddings.NewEmbedder(WithRateLimit(client, cfg.RequestsPerSecond, 1), embOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}
