// Package memory is a process-local vector store using brute-force cosine
// similarity. Its contents are lost when the process exits.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"docqa/internal/domain"
)

// Provider hands out a single shared Storage.
type Provider struct {
	mu       sync.Mutex
	embedder embeddings.Embedder
	storage  *Storage
}

func NewProvider(embedder embeddings.Embedder) (*Provider, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	return &Provider{embedder: embedder}, nil
}

func (p *Provider) Name() string { return "memory" }

func (p *Provider) Create(context.Context) (domain.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.storage == nil {
		p.storage = NewStorage(p.embedder)
	}
	return p.storage, nil
}

func (p *Provider) Load(context.Context) (domain.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.storage == nil {
		return nil, domain.ErrStoreNotFound
	}
	return p.storage, nil
}

func (p *Provider) Delete(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.storage == nil {
		return domain.ErrStoreNotFound
	}
	p.storage = nil
	return nil
}

// Storage keeps chunks and their unit-length vectors in memory.
type Storage struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	index    map[string]int
	ids      []string
	vectors  [][]float32
	docs     []schema.Document
}

var _ vectorstores.VectorStore = (*Storage)(nil)

func NewStorage(embedder embeddings.Embedder) *Storage {
	return &Storage{embedder: embedder, index: make(map[string]int)}
}

func (s *Storage) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(docs) {
		return nil, errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vectors) > 0 {
		for _, v := range vectors {
			if len(v) != len(s.vectors[0]) {
				return nil, errors.New("vector dimension mismatch")
			}
		}
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		id, _ := d.Metadata[domain.ChunkIDKey].(string)
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		vec := normalize(vectors[i])
		if j, ok := s.index[id]; ok {
			s.vectors[j] = vec
			s.docs[j] = d
			continue
		}
		s.index[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
		s.docs = append(s.docs, d)
	}
	return ids, nil
}

func (s *Storage) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, o := range options {
		o(&opts)
	}
	qv, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	qv = normalize(qv)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if numDocuments <= 0 {
		numDocuments = 3
	}
	scores := make([]float32, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], qv)
	}
	idxs := argsortDesc(scores)
	if numDocuments > len(idxs) {
		numDocuments = len(idxs)
	}
	results := make([]schema.Document, 0, numDocuments)
	for _, j := range idxs[:numDocuments] {
		if opts.ScoreThreshold > 0 && scores[j] < opts.ScoreThreshold {
			continue
		}
		doc := s.docs[j]
		doc.Score = scores[j]
		results = append(results, doc)
	}
	return results, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	n := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float32) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
