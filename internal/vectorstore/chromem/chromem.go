// Package chromem stores chunks in an embedded chromem-go database persisted
// to a local directory.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/google/uuid"
	chromemgo "github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

// Config configures the persistent chromem-go database.
type Config struct {
	// PersistDirectory holds the gob files of every collection.
	PersistDirectory string
	Collection       string
	Compress         bool
}

// Provider opens the configured collection.
type Provider struct {
	cfg      Config
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewProvider creates a provider for cfg. Nothing is touched on disk until
// Create or Load is called.
func NewProvider(cfg Config, embedder embeddings.Embedder, logger *zap.Logger) (*Provider, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg.PersistDirectory == "" {
		return nil, errors.New("persist directory required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("collection name required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, embedder: embedder, logger: logger}, nil
}

// Name returns the identifier of this backend.
func (p *Provider) Name() string { return "chromem" }

// Create opens the collection, creating the directory and collection when missing.
func (p *Provider) Create(ctx context.Context) (domain.Store, error) {
	if err := os.MkdirAll(p.cfg.PersistDirectory, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", p.cfg.PersistDirectory, err)
	}
	db, err := chromemgo.NewPersistentDB(p.cfg.PersistDirectory, p.cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}
	col, err := db.GetOrCreateCollection(p.cfg.Collection, nil, p.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", p.cfg.Collection, err)
	}
	p.logger.Debug("opened chromem collection",
		zap.String("path", p.cfg.PersistDirectory),
		zap.String("collection", p.cfg.Collection),
		zap.Int("count", col.Count()),
	)
	return &Store{collection: col, embedder: p.embedder}, nil
}

// Load opens an existing collection.
func (p *Provider) Load(ctx context.Context) (domain.Store, error) {
	if _, err := os.Stat(p.cfg.PersistDirectory); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, err
	}
	db, err := chromemgo.NewPersistentDB(p.cfg.PersistDirectory, p.cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}
	// Passing the embedding func keeps chromem from defaulting to its own OpenAI client.
	col := db.GetCollection(p.cfg.Collection, p.embeddingFunc())
	if col == nil {
		return nil, domain.ErrStoreNotFound
	}
	return &Store{collection: col, embedder: p.embedder}, nil
}

// Delete removes the persistence directory.
func (p *Provider) Delete(ctx context.Context) error {
	if _, err := os.Stat(p.cfg.PersistDirectory); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrStoreNotFound
		}
		return err
	}
	if err := os.RemoveAll(p.cfg.PersistDirectory); err != nil {
		return fmt.Errorf("removing %s: %w", p.cfg.PersistDirectory, err)
	}
	return nil
}

func (p *Provider) embeddingFunc() chromemgo.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return p.embedder.EmbedQuery(ctx, text)
	}
}

// Store adapts a chromem collection to langchaingo's VectorStore.
type Store struct {
	collection *chromemgo.Collection
	embedder   embeddings.Embedder
}

var _ vectorstores.VectorStore = (*Store)(nil)

// AddDocuments embeds docs and writes them to the collection. Documents
// carrying a chunk id replace earlier copies with the same id.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	chromemDocs := make([]chromemgo.Document, len(docs))
	for i, d := range docs {
		ids[i] = documentID(d)
		chromemDocs[i] = chromemgo.Document{
			ID:        ids[i],
			Content:   d.PageContent,
			Metadata:  toStringMap(d.Metadata),
			Embedding: vectors[i],
		}
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("adding documents: %w", err)
	}
	return ids, nil
}

// SimilaritySearch returns up to numDocuments chunks closest to query.
// ScoreThreshold and map[string]string filters are honoured.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, o := range options {
		o(&opts)
	}
	count := s.collection.Count()
	if count == 0 || numDocuments <= 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection.
	if numDocuments > count {
		numDocuments = count
	}
	var where map[string]string
	if f, ok := opts.Filters.(map[string]string); ok {
		where = f
	}
	results, err := s.collection.Query(ctx, query, numDocuments, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	docs := make([]schema.Document, 0, len(results))
	for _, r := range results {
		if opts.ScoreThreshold > 0 && r.Similarity < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: r.Content,
			Metadata:    fromStringMap(r.Metadata),
			Score:       r.Similarity,
		})
	}
	return docs, nil
}

// Count returns the number of chunks in the collection.
func (s *Store) Count(context.Context) (int, error) {
	return s.collection.Count(), nil
}

func documentID(d schema.Document) string {
	if v, ok := d.Metadata[domain.ChunkIDKey].(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}

func toStringMap(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func fromStringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	// chunk_index is written as an int; give it back as one.
	if v, ok := m[domain.ChunkIndexKey]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			out[domain.ChunkIndexKey] = n
		}
	}
	return out
}
