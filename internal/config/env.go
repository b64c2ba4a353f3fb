package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingEnv is returned when neither a .env file nor an API key in the
// environment is available.
var ErrMissingEnv = errors.New(".env file not found")

// EnvTemplate is shown to users who have not configured the tool yet.
const EnvTemplate = `OPENAI_API_KEY=your-api-key-here
MODEL_NAME=gpt-3.5-turbo
COLLECTION_NAME=my_documents
PERSIST_DIRECTORY=db`

// LoadEnvFile loads variables from a dotenv file. Variables already set in
// the process environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *AppConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("MODEL_NAME", &cfg.LLM.Model)
	setString("COLLECTION_NAME", &cfg.VectorStore.Collection)
	setString("PERSIST_DIRECTORY", &cfg.VectorStore.PersistDirectory)
	setString("EMBEDDING_MODEL", &cfg.Embedder.Model)
	setString("OPENAI_BASE_URL", &cfg.LLM.BaseURL)
	setString("OPENAI_BASE_URL", &cfg.Embedder.BaseURL)
	setString("DOCUMENTS_DIR", &cfg.Documents.Dir)
	setString("LOG_LEVEL", &cfg.Log.Level)
}

// CheckEnvironment creates the documents and log directories when missing and
// verifies that credentials can be found. It returns the directories it created.
func CheckEnvironment(cfg *AppConfig, envPath string) ([]string, error) {
	var created []string
	for _, dir := range []string{cfg.Documents.Dir, cfg.Log.Dir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return created, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, err
		}
		created = append(created, dir)
	}
	if _, err := os.Stat(envPath); errors.Is(err, os.ErrNotExist) && cfg.APIKey() == "" {
		return created, ErrMissingEnv
	}
	return created, nil
}
