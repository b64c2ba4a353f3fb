// Package chunker builds the text splitter selected in the configuration and
// applies it to loaded documents.
package chunker

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"docqa/internal/config"
)

// New returns the splitter named by cfg.Type.
func New(cfg config.ChunkerConfig) (textsplitter.TextSplitter, error) {
	switch cfg.Type {
	case "recursive", "":
		return textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		), nil
	case "sentence":
		return NewSentenceSplitter(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

// Split splits each document and copies its metadata onto every chunk.
func Split(splitter textsplitter.TextSplitter, docs []schema.Document) ([]schema.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	return textsplitter.SplitDocuments(splitter, docs)
}
