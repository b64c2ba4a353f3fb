package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/service"
	"docqa/internal/tui"
	"docqa/internal/vectorstore/memory"
)

type fakeRAG struct {
	docs       []schema.Document
	loadErr    error
	storeErr   error
	deleteErr  error
	chainErr   error
	count      int
	asker      domain.Asker
	calls      []string
	indexedLen int
}

func (f *fakeRAG) LoadDocuments(context.Context, string) ([]schema.Document, error) {
	f.calls = append(f.calls, "load")
	return f.docs, f.loadErr
}

func (f *fakeRAG) ProcessDocuments(docs []schema.Document) ([]schema.Document, error) {
	f.calls = append(f.calls, "process")
	return docs, nil
}

func (f *fakeRAG) CreateVectorStore(_ context.Context, chunks []schema.Document) (domain.Store, error) {
	f.calls = append(f.calls, "create")
	f.indexedLen = len(chunks)
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return memory.NewStorage(embedding.NewHashing(16)), nil
}

func (f *fakeRAG) LoadVectorStore(context.Context) (domain.Store, error) {
	f.calls = append(f.calls, "open")
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return memory.NewStorage(embedding.NewHashing(16)), nil
}

func (f *fakeRAG) DeleteVectorStore(context.Context) error {
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

func (f *fakeRAG) DocumentCount(context.Context) (int, error) {
	f.calls = append(f.calls, "count")
	return f.count, f.storeErr
}

func (f *fakeRAG) NewQAChain(domain.Store) (domain.Asker, error) {
	f.calls = append(f.calls, "chain")
	return f.asker, f.chainErr
}

type staticAsker struct{ answer domain.Answer }

func (s staticAsker) Ask(context.Context, string) (domain.Answer, error) { return s.answer, nil }

func newApp(rag RAG, input string, opts ...Option) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithIO(strings.NewReader(input), &out)}, opts...)
	return New(rag, "documents", nil, opts...), &out
}

func TestIndex_Success(t *testing.T) {
	rag := &fakeRAG{docs: []schema.Document{{PageContent: "a"}, {PageContent: "b"}}}
	app, out := newApp(rag, "")
	require.NoError(t, app.Index(context.Background()))
	assert.Equal(t, []string{"load", "process", "create"}, rag.calls)
	assert.Equal(t, 2, rag.indexedLen)
	for _, want := range []string{"Loading documents...", "Processing 2 documents...", "Creating vector store...", "Documents indexed successfully!"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestIndex_NoDocuments(t *testing.T) {
	rag := &fakeRAG{loadErr: service.ErrNoDocuments}
	app, out := newApp(rag, "")
	err := app.Index(context.Background())
	assert.ErrorIs(t, err, service.ErrNoDocuments)
	assert.Contains(t, out.String(), "Failed to index documents.")
	assert.Contains(t, out.String(), "No .txt files found in documents")
	assert.Equal(t, []string{"load"}, rag.calls)
}

func TestCount(t *testing.T) {
	app, out := newApp(&fakeRAG{count: 7}, "")
	require.NoError(t, app.Count(context.Background()))
	assert.Contains(t, out.String(), "Total documents: 7")

	app, out = newApp(&fakeRAG{storeErr: domain.ErrStoreNotFound}, "")
	require.NoError(t, app.Count(context.Background()))
	assert.Contains(t, out.String(), "No document store found")
	assert.Contains(t, out.String(), "Total documents: 0")

	app, out = newApp(&fakeRAG{storeErr: errors.New("corrupt")}, "")
	assert.Error(t, app.Count(context.Background()))
	assert.Contains(t, out.String(), "Failed to get document count.")
}

func TestDelete(t *testing.T) {
	app, out := newApp(&fakeRAG{}, "")
	require.NoError(t, app.Delete(context.Background()))
	assert.Contains(t, out.String(), "Document store deleted successfully!")

	app, out = newApp(&fakeRAG{deleteErr: domain.ErrStoreNotFound}, "")
	assert.ErrorIs(t, app.Delete(context.Background()), domain.ErrStoreNotFound)
	assert.Contains(t, out.String(), "Failed to delete document store.")
}

func TestStartChat_NoStore(t *testing.T) {
	chatRan := false
	rag := &fakeRAG{storeErr: domain.ErrStoreNotFound}
	app, out := newApp(rag, "", WithChat(func(context.Context, domain.Asker) error {
		chatRan = true
		return nil
	}))
	assert.ErrorIs(t, app.StartChat(context.Background()), domain.ErrStoreNotFound)
	assert.False(t, chatRan)
	assert.Contains(t, out.String(), "No document store found. Please index documents first.")
	assert.NotContains(t, out.String(), "Creating QA chain...")
}

func TestStartChat_ChainFailure(t *testing.T) {
	rag := &fakeRAG{chainErr: errors.New("bad key")}
	app, out := newApp(rag, "", WithChat(func(context.Context, domain.Asker) error {
		t.Fatal("chat must not start")
		return nil
	}))
	assert.Error(t, app.StartChat(context.Background()))
	assert.Contains(t, out.String(), "Failed to start chat: bad key")
	assert.Contains(t, out.String(), "OPENAI_API_KEY")
}

func TestStartChat_Ready(t *testing.T) {
	asker := staticAsker{}
	var got domain.Asker
	app, out := newApp(&fakeRAG{asker: asker}, "", WithChat(func(_ context.Context, a domain.Asker) error {
		got = a
		return nil
	}))
	require.NoError(t, app.StartChat(context.Background()))
	assert.Equal(t, asker, got)
	for _, want := range []string{"Loading vector store...", "Creating QA chain...", "Chat system ready!"} {
		assert.Contains(t, out.String(), want)
	}
}

func TestAsk(t *testing.T) {
	asker := staticAsker{answer: domain.Answer{
		Text:    "Forty-two.",
		Sources: []schema.Document{{PageContent: "The answer is forty-two.", Metadata: map[string]any{domain.SourceKey: "guide.txt"}}},
	}}
	app, out := newApp(&fakeRAG{asker: asker}, "")
	require.NoError(t, app.Ask(context.Background(), "what is the answer?"))
	assert.Contains(t, out.String(), "Forty-two.")
	assert.Contains(t, out.String(), "guide.txt")

	assert.Error(t, app.Ask(context.Background(), "  "))
}

func TestRun_DispatchesUntilExit(t *testing.T) {
	choices := []tui.Choice{tui.ChoiceCount, tui.ChoiceDelete, tui.ChoiceExit}
	rag := &fakeRAG{count: 3}
	i := 0
	app, out := newApp(rag, "\n\n\n", WithMenu(func(context.Context) (tui.Choice, error) {
		c := choices[i]
		i++
		return c, nil
	}))
	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, []string{"count", "delete"}, rag.calls)
	assert.Equal(t, 2, strings.Count(out.String(), "Press Enter to continue..."))
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	choices := []tui.Choice{tui.ChoiceIndex, tui.ChoiceExit}
	i := 0
	app, out := newApp(&fakeRAG{loadErr: fmt.Errorf("loading: %w", service.ErrNoDocuments)}, "\n", WithMenu(func(context.Context) (tui.Choice, error) {
		c := choices[i]
		i++
		return c, nil
	}))
	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "Failed to index documents.")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRun_StopsWhenInputEnds(t *testing.T) {
	calls := 0
	app, _ := newApp(&fakeRAG{}, "", WithMenu(func(context.Context) (tui.Choice, error) {
		calls++
		return tui.ChoiceCount, nil
	}))
	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestRun_MenuError(t *testing.T) {
	app, _ := newApp(&fakeRAG{}, "", WithMenu(func(context.Context) (tui.Choice, error) {
		return tui.ChoiceNone, errors.New("no tty")
	}))
	assert.EqualError(t, app.Run(context.Background()), "no tty")
}

func TestDefaultMenu_ReadsConfiguredInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app, _ := newApp(&fakeRAG{}, "2")
	choice, err := app.menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, tui.ChoiceCount, choice)
}
