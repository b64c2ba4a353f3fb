// Package qdrant stores chunks in a Qdrant collection. Points are written and
// searched through langchaingo's Qdrant vector store; collection management
// uses the Qdrant REST API directly.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	lcqdrant "github.com/tmc/langchaingo/vectorstores/qdrant"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

// Config contains connection details for a Qdrant server.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Distance   string
	Timeout    time.Duration
}

// Provider manages the configured collection.
type Provider struct {
	url        *url.URL
	apiKey     string
	collection string
	distance   string
	embedder   embeddings.Embedder
	client     *http.Client
	logger     *zap.Logger
}

func NewProvider(cfg Config, embedder embeddings.Embedder, logger *zap.Logger) (*Provider, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("collection name required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid qdrant url %q", cfg.URL)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = "Cosine"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		url:        u,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		distance:   distance,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (p *Provider) Name() string { return "qdrant" }

// Create creates the collection when missing. The vector size is taken from
// a probe embedding.
func (p *Provider) Create(ctx context.Context) (domain.Store, error) {
	exists, err := p.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		probe, err := p.embedder.EmbedQuery(ctx, "dimension probe")
		if err != nil {
			return nil, fmt.Errorf("probing embedding dimension: %w", err)
		}
		if len(probe) == 0 {
			return nil, errors.New("invalid dimension")
		}
		body := map[string]any{
			"vectors": map[string]any{
				"size":     len(probe),
				"distance": p.distance,
			},
		}
		if err := p.doJSON(ctx, http.MethodPut, p.collectionURL(""), body, nil); err != nil {
			return nil, err
		}
		p.logger.Info("created qdrant collection",
			zap.String("collection", p.collection),
			zap.Int("vector_size", len(probe)),
		)
	}
	return p.open()
}

func (p *Provider) Load(ctx context.Context) (domain.Store, error) {
	exists, err := p.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrStoreNotFound
	}
	return p.open()
}

func (p *Provider) Delete(ctx context.Context) error {
	exists, err := p.exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrStoreNotFound
	}
	return p.doJSON(ctx, http.MethodDelete, p.collectionURL(""), nil, nil)
}

func (p *Provider) open() (domain.Store, error) {
	opts := []lcqdrant.Option{
		lcqdrant.WithURL(*p.url),
		lcqdrant.WithCollectionName(p.collection),
		lcqdrant.WithEmbedder(p.embedder),
	}
	if p.apiKey != "" {
		opts = append(opts, lcqdrant.WithAPIKey(p.apiKey))
	}
	store, err := lcqdrant.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Qdrant store: %w", err)
	}
	return &Store{store: store, provider: p}, nil
}

func (p *Provider) exists(ctx context.Context) (bool, error) {
	req, err := p.newRequest(ctx, http.MethodGet, p.collectionURL(""), nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("qdrant GET %s failed: %s", req.URL, resp.Status)
	}
	return true, nil
}

func (p *Provider) count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := p.doJSON(ctx, http.MethodPost, p.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (p *Provider) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", p.url.String(), url.PathEscape(p.collection), suffix)
}

func (p *Provider) newRequest(ctx context.Context, method, u string, body any) (*http.Request, error) {
	var r *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("api-key", p.apiKey)
	}
	return req, nil
}

func (p *Provider) doJSON(ctx context.Context, method, u string, body, out any) error {
	req, err := p.newRequest(ctx, method, u, body)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, u, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Store delegates reads and writes to langchaingo and counts via REST.
type Store struct {
	store    lcqdrant.Store
	provider *Provider
}

var _ vectorstores.VectorStore = (*Store)(nil)

func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	return s.store.AddDocuments(ctx, docs, options...)
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	return s.store.SimilaritySearch(ctx, query, numDocuments, options...)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.provider.count(ctx)
}
