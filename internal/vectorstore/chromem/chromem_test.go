package chromem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"docqa/internal/domain"
	"docqa/internal/embedding"
)

func newTestProvider(t *testing.T) (*Provider, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	p, err := NewProvider(Config{PersistDirectory: dir, Collection: "test_collection"}, embedding.NewHashing(128), nil)
	require.NoError(t, err)
	return p, dir
}

func sampleDocs() []schema.Document {
	return []schema.Document{
		{PageContent: "Cats purr when they are content.", Metadata: map[string]any{domain.SourceKey: "cats.txt", domain.ChunkIDKey: "c1"}},
		{PageContent: "Rust prevents data races at compile time.", Metadata: map[string]any{domain.SourceKey: "rust.txt", domain.ChunkIDKey: "r1"}},
		{PageContent: "Volcanoes erupt molten lava and ash.", Metadata: map[string]any{domain.SourceKey: "geo.txt", domain.ChunkIDKey: "g1"}},
	}
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{PersistDirectory: "db", Collection: "c"}, nil, nil)
	assert.Error(t, err)
	_, err = NewProvider(Config{Collection: "c"}, embedding.NewHashing(8), nil)
	assert.Error(t, err)
	_, err = NewProvider(Config{PersistDirectory: "db"}, embedding.NewHashing(8), nil)
	assert.Error(t, err)
}

func TestProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()
	p, dir := newTestProvider(t)

	_, err := p.Load(ctx)
	require.ErrorIs(t, err, domain.ErrStoreNotFound)
	require.ErrorIs(t, p.Delete(ctx), domain.ErrStoreNotFound)

	store, err := p.Create(ctx)
	require.NoError(t, err)
	ids, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "r1", "g1"}, ids)

	// Re-adding the same chunk ids replaces rather than duplicates.
	_, err = store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	reloaded, err := p.Load(ctx)
	require.NoError(t, err)
	n, err = reloaded.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, p.Delete(ctx))
	assert.NoDirExists(t, dir)
	_, err = p.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestStore_SimilaritySearch(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)
	store, err := p.Create(ctx)
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "why do cats purr", 10)
	require.NoError(t, err)
	require.Len(t, docs, 3, "k is capped at the collection size")
	assert.Equal(t, "cats.txt", docs[0].Metadata[domain.SourceKey])
	assert.GreaterOrEqual(t, docs[0].Score, docs[1].Score)

	docs, err = store.SimilaritySearch(ctx, "lava", 3, vectorstores.WithFilters(map[string]string{domain.SourceKey: "rust.txt"}))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "rust.txt", docs[0].Metadata[domain.SourceKey])

	docs, err = store.SimilaritySearch(ctx, "cats purr content", 3, vectorstores.WithScoreThreshold(0.99))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(docs), 1)
}

func TestStore_EmptyCollection(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)
	store, err := p.Create(ctx)
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, docs)

	ids, err := store.AddDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDocumentID_FallsBackToUUID(t *testing.T) {
	id := documentID(schema.Document{PageContent: "x"})
	assert.Len(t, id, 36)
}

func TestStore_ChunkIndexKeepsIntType(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)
	store, err := p.Create(ctx)
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, []schema.Document{{
		PageContent: "Tides follow the moon.",
		Metadata:    map[string]any{domain.SourceKey: "sea.txt", domain.ChunkIDKey: "s1", domain.ChunkIndexKey: 4},
	}})
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "moon tides", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 4, docs[0].Metadata[domain.ChunkIndexKey])
	assert.Equal(t, "s1", docs[0].Metadata[domain.ChunkIDKey])
}

func TestFromStringMap_LeavesBadIndexAsString(t *testing.T) {
	got := fromStringMap(map[string]string{domain.ChunkIndexKey: "x"})
	assert.Equal(t, "x", got[domain.ChunkIndexKey])
}
