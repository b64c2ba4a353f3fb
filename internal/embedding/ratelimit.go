package embedding

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/time/rate"
)

type rateLimitedClient struct {
	next    embeddings.EmbedderClient
	limiter *rate.Limiter
}

// WithRateLimit throttles next to rps embedding requests per second. The
// embedder built on top sends one request per batch, so every batch waits
// for its own token. A non-positive rps returns next unchanged.
func WithRateLimit(next embeddings.EmbedderClient, rps float64, burst int) embeddings.EmbedderClient {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedClient{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimitedClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CreateEmbedding(ctx, texts)
}
