// Package loader reads text files from a directory tree into langchaingo documents.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"docqa/internal/domain"
)

type decoder struct {
	name string
	enc  encoding.Encoding
}

// Tried in order. A nil encoding means UTF-8 taken as-is.
var decoders = []decoder{
	{name: "utf-8"},
	{name: "windows-1252", enc: charmap.Windows1252},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
}

// LoadDir loads every file under dir whose base name matches pattern.
// Files that cannot be read or decoded are logged and skipped.
func LoadDir(ctx context.Context, dir, pattern string, logger *zap.Logger) ([]schema.Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var docs []schema.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Error("Error walking path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}
		loaded, err := LoadFile(ctx, path)
		if err != nil {
			logger.Error("Error loading file", zap.String("path", path), zap.Error(err))
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LoadFile reads a single text file. The result holds one document whose
// source metadata is the file path.
func LoadFile(ctx context.Context, path string) ([]schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, _, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	docs, err := documentloaders.NewText(bytes.NewReader(text)).Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata[domain.SourceKey] = path
	}
	return docs, nil
}

// Decode converts raw file contents to UTF-8, returning the name of the
// encoding that was used.
func Decode(raw []byte) ([]byte, string, error) {
	var lastErr error
	for _, d := range decoders {
		if d.enc == nil {
			if utf8.Valid(raw) {
				return raw, d.name, nil
			}
			continue
		}
		out, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = err
			continue
		}
		// Skip decodings that had to substitute replacement characters.
		if bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return out, d.name, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no decoder accepted input")
	}
	return nil, "", lastErr
}
