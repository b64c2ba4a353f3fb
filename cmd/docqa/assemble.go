package main

import (
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/service"
	"docqa/internal/vectorstore/chromem"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

// assemble builds the RAG system described by cfg.
func assemble(cfg *config.AppConfig, logger *zap.Logger) (*service.RAGSystem, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	stores, err := newStoreProvider(cfg, emb, logger)
	if err != nil {
		return nil, err
	}
	llm, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		logger.Warn("No API key set, chat is disabled", zap.String("env", cfg.LLM.APIKeyEnv))
	}
	return service.NewRAGSystem(llm, splitter, stores, service.Options{
		Pattern:        cfg.Documents.Pattern,
		TopK:           cfg.Retrieval.TopK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		Temperature:    cfg.LLM.Temperature,
	}, logger), nil
}

func newEmbedder(cfg *config.AppConfig) (embeddings.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "":
		e, err := embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:            cfg.APIKey(),
			BaseURL:           cfg.Embedder.BaseURL,
			Model:             cfg.Embedder.Model,
			BatchSize:         cfg.Embedder.BatchSize,
			RequestsPerSecond: cfg.Embedder.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return e, nil
	case "hash":
		return embedding.NewHashing(cfg.Embedder.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newStoreProvider(cfg *config.AppConfig, emb embeddings.Embedder, logger *zap.Logger) (domain.StoreProvider, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "chromem", "":
		return chromem.NewProvider(chromem.Config{
			PersistDirectory: vs.PersistDirectory,
			Collection:       vs.Collection,
			Compress:         vs.Compress,
		}, emb, logger)
	case "memory":
		return memory.NewProvider(emb)
	case "qdrant":
		if vs.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewProvider(qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Collection,
			Distance:   vs.Qdrant.Distance,
			Timeout:    time.Duration(vs.Qdrant.TimeoutSecs) * time.Second,
		}, emb, logger)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
	}
}

// newLLM returns the chat model, or nil when no API key is configured.
func newLLM(cfg *config.AppConfig) (llms.Model, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, nil
	}
	opts := []openai.Option{
		openai.WithToken(key),
		openai.WithModel(cfg.LLM.Model),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return llm, nil
}
