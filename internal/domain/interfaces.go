package domain

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Metadata keys attached to documents and chunks.
const (
	SourceKey     = "source"
	ChunkIndexKey = "chunk_index"
	ChunkIDKey    = "chunk_id"
)

// ErrStoreNotFound is returned when the configured collection does not exist.
var ErrStoreNotFound = errors.New("vector store not found")

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	Text    string
	Sources []schema.Document
}

// Store is a vector store that can also report its size.
type Store interface {
	vectorstores.VectorStore
	Count(ctx context.Context) (int, error)
}

// StoreProvider opens, creates and removes the configured collection.
type StoreProvider interface {
	Name() string
	Create(ctx context.Context) (Store, error)
	Load(ctx context.Context) (Store, error)
	Delete(ctx context.Context) error
}

// Asker answers questions against an indexed collection.
type Asker interface {
	Ask(ctx context.Context, question string) (Answer, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Source returns the source path recorded on a document.
func Source(doc schema.Document) string {
	if v, ok := doc.Metadata[SourceKey]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "Unknown source"
}
