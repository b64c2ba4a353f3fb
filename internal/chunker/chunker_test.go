package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"docqa/internal/config"
)

func TestNew(t *testing.T) {
	s, err := New(config.ChunkerConfig{Type: "recursive", ChunkSize: 100, ChunkOverlap: 10})
	require.NoError(t, err)
	assert.NotNil(t, s)

	s, err = New(config.ChunkerConfig{Type: "sentence", SentencesPerChunk: 2})
	require.NoError(t, err)
	assert.IsType(t, &SentenceSplitter{}, s)

	_, err = New(config.ChunkerConfig{Type: "semantic"})
	assert.Error(t, err)
}

func TestSplit_RecursiveRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&b, "word%03d ", i)
	}
	splitter, err := New(config.ChunkerConfig{Type: "recursive", ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)

	docs := []schema.Document{{PageContent: b.String(), Metadata: map[string]any{"source": "long.txt"}}}
	chunks, err := Split(splitter, docs)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.PageContent), 1000)
		assert.Equal(t, "long.txt", c.Metadata["source"])
	}
}

func TestSplit_Empty(t *testing.T) {
	splitter, err := New(config.ChunkerConfig{Type: "recursive", ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)
	chunks, err := Split(splitter, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSentenceSplitter(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	tests := []struct {
		name    string
		per     int
		overlap int
		want    []string
	}{
		{"no overlap", 2, 0, []string{"One. Two.", "Three. Four.", "Five."}},
		{"overlap one", 3, 1, []string{"One. Two. Three.", "Three. Four. Five."}},
		{"overlap clamped", 2, 5, []string{"One. Two.", "Two. Three.", "Three. Four.", "Four. Five."}},
		{"single chunk", 10, 1, []string{"One. Two. Three. Four. Five."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSentenceSplitter(tt.per, tt.overlap).SplitText(text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentenceSplitter_BlankText(t *testing.T) {
	got, err := NewSentenceSplitter(3, 1).SplitText("  \n ")
	require.NoError(t, err)
	assert.Empty(t, got)
}
