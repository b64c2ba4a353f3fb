package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docqa/internal/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestLoadDir_RecursiveAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("alpha"))
	writeFile(t, filepath.Join(dir, "nested", "b.txt"), []byte("beta"))
	writeFile(t, filepath.Join(dir, "notes.md"), []byte("ignored"))

	docs, err := LoadDir(context.Background(), dir, "*.txt", nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "alpha", docs[0].PageContent)
	assert.Equal(t, filepath.Join(dir, "a.txt"), docs[0].Metadata[domain.SourceKey])
	assert.Equal(t, "beta", docs[1].PageContent)
	assert.Equal(t, filepath.Join(dir, "nested", "b.txt"), docs[1].Metadata[domain.SourceKey])
}

func TestLoadDir_EmptyDirectory(t *testing.T) {
	docs, err := LoadDir(context.Background(), t.TempDir(), "*.txt", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"), "*.txt", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDir_BadPattern(t *testing.T) {
	_, err := LoadDir(context.Background(), t.TempDir(), "[", nil)
	assert.Error(t, err)
}

func TestLoadDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("alpha"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadDir(ctx, dir, "*.txt", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDir_UnreadableFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.txt"), []byte("fine"))
	locked := filepath.Join(dir, "locked.txt")
	writeFile(t, locked, []byte("secret"))
	require.NoError(t, os.Chmod(locked, 0o000))

	core, logs := observer.New(zapcore.InfoLevel)
	docs, err := LoadDir(context.Background(), dir, "*.txt", zap.New(core))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fine", docs[0].PageContent)
	assert.Equal(t, 1, logs.FilterMessage("Error loading file").Len())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		want     string
		encoding string
	}{
		{"utf8", []byte("café"), "café", "utf-8"},
		{"windows-1252 quotes", []byte{0x93, 'h', 'i', 0x94}, "“hi”", "windows-1252"},
		{"single-byte accent", []byte{'c', 'a', 'f', 0xe9}, "café", "windows-1252"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, enc, err := Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.encoding, enc)
		})
	}
}
