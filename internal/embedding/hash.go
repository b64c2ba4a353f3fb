package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"docqa/internal/textutil"
)

// HashingEmbedder is an offline embedder that hashes stopword-filtered term
// frequencies into a fixed number of buckets. It needs no corpus preparation,
// so vectors stay comparable across runs against a persisted collection.
type HashingEmbedder struct {
	dimension int
}

// NewHashing creates a hashing embedder producing vectors of the given size.
func NewHashing(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 512
	}
	return &HashingEmbedder{dimension: dimension}
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *HashingEmbedder) Dimension() int { return e.dimension }

// EmbedDocuments embeds each text independently.
func (e *HashingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

// EmbedQuery embeds a single query.
func (e *HashingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float64, e.dimension)
	tokens := textutil.ContentTokens(text)
	if len(tokens) == 0 {
		// Keep the vector non-zero so cosine similarity stays defined.
		tokens = []string{strings.ToLower(strings.TrimSpace(text))}
	}
	for _, tok := range tokens {
		idx, sign := e.bucket(tok)
		vec[idx] += sign
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, e.dimension)
	if norm == 0 {
		// Colliding signs cancelled out.
		out[0] = 1
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (e *HashingEmbedder) bucket(token string) (int, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(e.dimension)), sign
}
