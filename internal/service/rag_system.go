package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/loader"
)

var (
	// ErrNoDocuments is returned when a directory yields no documents.
	ErrNoDocuments = errors.New("no documents were loaded")
	// ErrNoChunks is returned when there is nothing to index.
	ErrNoChunks = errors.New("no texts to process")
)

// chunkNamespace scopes the deterministic chunk ids.
var chunkNamespace = uuid.MustParse("6f1c7f0e-2b8e-4c55-9d8b-3b7c1e0a9f42")

// Options tunes retrieval and generation.
type Options struct {
	// Pattern selects files by base name, e.g. "*.txt".
	Pattern        string
	TopK           int
	ScoreThreshold float32
	Temperature    float64
}

// RAGSystem wires the loader, splitter, vector store and chat model together.
type RAGSystem struct {
	llm      llms.Model
	splitter textsplitter.TextSplitter
	stores   domain.StoreProvider
	opts     Options
	logger   *zap.Logger
}

func NewRAGSystem(llm llms.Model, splitter textsplitter.TextSplitter, stores domain.StoreProvider, opts Options, logger *zap.Logger) *RAGSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Pattern == "" {
		opts.Pattern = "*.txt"
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	logger.Info("RAG System initialized successfully",
		zap.String("vector_store", stores.Name()),
		zap.Int("top_k", opts.TopK),
	)
	return &RAGSystem{llm: llm, splitter: splitter, stores: stores, opts: opts, logger: logger}
}

// LoadDocuments loads every matching file under dir.
func (s *RAGSystem) LoadDocuments(ctx context.Context, dir string) ([]schema.Document, error) {
	s.logger.Info("Loading documents", zap.String("dir", dir))
	docs, err := loader.LoadDir(ctx, dir, s.opts.Pattern, s.logger)
	if err != nil {
		s.logger.Error("Error in load_documents", zap.Error(err))
		return nil, fmt.Errorf("loading documents from %s: %w", dir, err)
	}
	if len(docs) == 0 {
		s.logger.Warn("No documents were loaded")
		return nil, ErrNoDocuments
	}
	s.logger.Info("Successfully loaded documents", zap.Int("count", len(docs)))
	return docs, nil
}

// ProcessDocuments splits documents into chunks and tags each chunk with its
// position and a stable id.
func (s *RAGSystem) ProcessDocuments(docs []schema.Document) ([]schema.Document, error) {
	s.logger.Info("Processing documents into chunks")
	if len(docs) == 0 {
		return nil, nil
	}
	chunks, err := chunker.Split(s.splitter, docs)
	if err != nil {
		s.logger.Error("Error in process_documents", zap.Error(err))
		return nil, fmt.Errorf("splitting documents: %w", err)
	}
	perSource := map[string]int{}
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = map[string]any{}
		}
		src := domain.Source(chunks[i])
		idx := perSource[src]
		perSource[src]++
		chunks[i].Metadata[domain.ChunkIndexKey] = idx
		chunks[i].Metadata[domain.ChunkIDKey] = chunkID(src, idx, chunks[i].PageContent)
	}
	s.logger.Info("Created text chunks", zap.Int("count", len(chunks)))
	return chunks, nil
}

// CreateVectorStore embeds chunks into the configured collection.
func (s *RAGSystem) CreateVectorStore(ctx context.Context, chunks []schema.Document) (domain.Store, error) {
	s.logger.Info("Creating vector store")
	if len(chunks) == 0 {
		s.logger.Warn("No texts to process. Vector store will be empty.")
		return nil, ErrNoChunks
	}
	store, err := s.stores.Create(ctx)
	if err != nil {
		s.logger.Error("Error in create_vector_store", zap.Error(err))
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if _, err := store.AddDocuments(ctx, chunks); err != nil {
		s.logger.Error("Error in create_vector_store", zap.Error(err))
		return nil, fmt.Errorf("adding chunks: %w", err)
	}
	s.logger.Info("Vector store created successfully", zap.Int("chunks", len(chunks)))
	return store, nil
}

// LoadVectorStore opens the existing collection.
func (s *RAGSystem) LoadVectorStore(ctx context.Context) (domain.Store, error) {
	s.logger.Info("Loading existing vector store")
	store, err := s.stores.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			s.logger.Warn("No vector store found")
		} else {
			s.logger.Error("Error in load_vector_store", zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("Vector store loaded successfully")
	return store, nil
}

// DeleteVectorStore removes the collection.
func (s *RAGSystem) DeleteVectorStore(ctx context.Context) error {
	s.logger.Info("Deleting vector store")
	if err := s.stores.Delete(ctx); err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			s.logger.Warn("Vector store directory does not exist")
		} else {
			s.logger.Error("Error deleting vector store", zap.Error(err))
		}
		return err
	}
	s.logger.Info("Vector store deleted successfully")
	return nil
}

// DocumentCount returns the number of chunks stored in the collection.
func (s *RAGSystem) DocumentCount(ctx context.Context) (int, error) {
	s.logger.Info("Getting document count")
	store, err := s.LoadVectorStore(ctx)
	if err != nil {
		return 0, err
	}
	n, err := store.Count(ctx)
	if err != nil {
		s.logger.Error("Error getting document count", zap.Error(err))
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	s.logger.Info("Found documents in vector store", zap.Int("count", n))
	return n, nil
}

func chunkID(source string, index int, content string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s\x00%d\x00%s", source, index, content))).String()
}
