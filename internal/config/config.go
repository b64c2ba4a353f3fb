package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the chat model that answers questions.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type              string  `yaml:"type"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	BatchSize         int     `yaml:"batch_size"`
	Dimension         int     `yaml:"dimension,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type             string        `yaml:"type"`
	Collection       string        `yaml:"collection"`
	PersistDirectory string        `yaml:"persist_directory"`
	Compress         bool          `yaml:"compress,omitempty"`
	Qdrant           *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig controls how many chunks are handed to the model.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float32 `yaml:"score_threshold,omitempty"`
}

// DocumentsConfig locates the text files to index.
type DocumentsConfig struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
}

// LogConfig configures the file logger.
type LogConfig struct {
	Dir     string `yaml:"dir"`
	Level   string `yaml:"level"`
	Console bool   `yaml:"console,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Documents   DocumentsConfig   `yaml:"documents"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads the YAML file at path on top of Default. A missing file yields
// the defaults unchanged.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault returns the first config found in ./config.yaml and
// ~/.config/docqa/config.yaml, with the path it came from. When neither
// exists the defaults are written to the user path.
func LoadDefault() (*AppConfig, string, error) {
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	for _, path := range []string{"config.yaml", userPath} {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", fmt.Errorf("writing default config: %w", err)
	}
	return cfg, userPath, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// APIKey returns the key found in the environment variable named by LLM.APIKeyEnv.
func (c *AppConfig) APIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// Validate checks backend names and numeric bounds.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "openai", "hash":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.Chunker.Type {
	case "recursive":
		if c.Chunker.ChunkSize <= 0 {
			return fmt.Errorf("chunk_size must be positive, got %d", c.Chunker.ChunkSize)
		}
		if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
			return fmt.Errorf("chunk_overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, c.Chunker.ChunkOverlap)
		}
	case "sentence":
		if c.Chunker.OverlapSentences >= c.Chunker.SentencesPerChunk {
			return fmt.Errorf("overlap_sentences must be smaller than sentences_per_chunk")
		}
	default:
		return fmt.Errorf("unknown chunker: %s", c.Chunker.Type)
	}
	switch c.VectorStore.Type {
	case "chromem", "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return errors.New("qdrant config missing")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.VectorStore.Collection == "" {
		return errors.New("collection name required")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Retrieval.TopK)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		LLM:         LLMConfig{Model: "gpt-3.5-turbo", APIKeyEnv: "OPENAI_API_KEY", Temperature: 0.7},
		Embedder:    EmbedderConfig{Type: "openai", Model: "text-embedding-3-small", BatchSize: 64},
		Chunker:     ChunkerConfig{Type: "recursive", ChunkSize: 1000, ChunkOverlap: 200, SentencesPerChunk: 5, OverlapSentences: 1},
		VectorStore: VectorStoreConfig{Type: "chromem", Collection: "my_documents", PersistDirectory: "db"},
		Retrieval:   RetrievalConfig{TopK: 3},
		Documents:   DocumentsConfig{Dir: "./documents", Pattern: "*.txt"},
		Log:         LogConfig{Dir: "logs", Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Type == "hash" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Distance == "" {
			cfg.VectorStore.Qdrant.Distance = "Cosine"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Documents.Pattern == "" {
		cfg.Documents.Pattern = "*.txt"
	}
}
