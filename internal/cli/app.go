// Package cli drives the interactive menu and the one-shot commands on top
// of the RAG system.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"docqa/internal/domain"
	"docqa/internal/service"
	"docqa/internal/tui"
)

// RAG is the subset of service.RAGSystem the application needs.
type RAG interface {
	LoadDocuments(ctx context.Context, dir string) ([]schema.Document, error)
	ProcessDocuments(docs []schema.Document) ([]schema.Document, error)
	CreateVectorStore(ctx context.Context, chunks []schema.Document) (domain.Store, error)
	LoadVectorStore(ctx context.Context) (domain.Store, error)
	DeleteVectorStore(ctx context.Context) error
	DocumentCount(ctx context.Context) (int, error)
	NewQAChain(store domain.Store) (domain.Asker, error)
}

var _ RAG = (*service.RAGSystem)(nil)

type (
	MenuFunc func(ctx context.Context) (tui.Choice, error)
	ChatFunc func(ctx context.Context, asker domain.Asker) error
)

// App runs user-facing actions and prints their progress.
type App struct {
	rag        RAG
	docsDir    string
	summarizer domain.Summarizer
	stdin      io.Reader
	in         *bufio.Reader
	out        io.Writer
	menu       MenuFunc
	chat       ChatFunc
}

type Option func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.stdin = in
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

// WithMenu replaces the interactive menu.
func WithMenu(fn MenuFunc) Option { return func(a *App) { a.menu = fn } }

// WithChat replaces the interactive chat loop.
func WithChat(fn ChatFunc) Option { return func(a *App) { a.chat = fn } }

func New(rag RAG, docsDir string, summarizer domain.Summarizer, opts ...Option) *App {
	a := &App{
		rag:        rag,
		docsDir:    docsDir,
		summarizer: summarizer,
		stdin:      os.Stdin,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.menu == nil {
		a.menu = func(ctx context.Context) (tui.Choice, error) {
			return tui.RunMenu(ctx, a.stdin, a.out)
		}
	}
	if a.chat == nil {
		a.chat = func(ctx context.Context, asker domain.Asker) error {
			return tui.RunChat(ctx, asker, a.summarizer, a.stdin, a.out)
		}
	}
	return a
}

// Run shows the menu until the user chooses Exit. Action failures are
// reported and the menu comes back.
func (a *App) Run(ctx context.Context) error {
	for {
		choice, err := a.menu(ctx)
		if err != nil {
			if ctx.Err() != nil {
				a.println(tui.Info("Goodbye!"))
				return nil
			}
			return err
		}
		switch choice {
		case tui.ChoiceIndex:
			_ = a.Index(ctx)
		case tui.ChoiceCount:
			_ = a.Count(ctx)
		case tui.ChoiceDelete:
			_ = a.Delete(ctx)
		case tui.ChoiceChat:
			_ = a.StartChat(ctx)
		case tui.ChoiceExit, tui.ChoiceNone:
			a.println(tui.Info("Goodbye!"))
			return nil
		}
		if !a.pause() {
			return nil
		}
	}
}

// Index loads, splits and stores every document in the documents directory.
func (a *App) Index(ctx context.Context) error {
	a.println(tui.Info("Loading documents..."))
	docs, err := a.rag.LoadDocuments(ctx, a.docsDir)
	if err != nil {
		a.println(tui.Error("Failed to index documents."))
		if errors.Is(err, service.ErrNoDocuments) {
			a.println(tui.Warn(fmt.Sprintf("No .txt files found in %s. Add some documents and try again.", a.docsDir)))
		} else {
			a.println(tui.Warn(err.Error()))
		}
		return err
	}
	a.println(tui.Info(fmt.Sprintf("Processing %d documents...", len(docs))))
	chunks, err := a.rag.ProcessDocuments(docs)
	if err != nil {
		a.println(tui.Error("Failed to index documents."))
		return err
	}
	a.println(tui.Info("Creating vector store..."))
	if _, err := a.rag.CreateVectorStore(ctx, chunks); err != nil {
		a.println(tui.Error("Failed to index documents."))
		if errors.Is(err, service.ErrNoChunks) {
			a.println(tui.Warn("The documents contain no text to index."))
		}
		return err
	}
	a.println(tui.Success("Documents indexed successfully!"))
	return nil
}

// Count prints the number of chunks in the store.
func (a *App) Count(ctx context.Context) error {
	a.println(tui.Info("Getting document count..."))
	n, err := a.rag.DocumentCount(ctx)
	switch {
	case errors.Is(err, domain.ErrStoreNotFound):
		a.println(tui.Warn("No document store found. Please index documents first."))
		n = 0
	case err != nil:
		a.println(tui.Error("Failed to get document count."))
		return err
	}
	a.println(tui.Success(fmt.Sprintf("Total documents: %d", n)))
	return nil
}

// Delete removes the document store.
func (a *App) Delete(ctx context.Context) error {
	a.println(tui.Info("Deleting document store..."))
	if err := a.rag.DeleteVectorStore(ctx); err != nil {
		a.println(tui.Error("Failed to delete document store."))
		if errors.Is(err, domain.ErrStoreNotFound) {
			a.println(tui.Warn("There is no document store to delete."))
		}
		return err
	}
	a.println(tui.Success("Document store deleted successfully!"))
	return nil
}

// StartChat opens the store and runs the chat loop.
func (a *App) StartChat(ctx context.Context) error {
	asker, err := a.openChain(ctx)
	if err != nil {
		return err
	}
	a.println(tui.Success("Chat system ready!"))
	return a.chat(ctx, asker)
}

// Ask answers a single question and prints the answer with its sources.
func (a *App) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		a.println(tui.Warn("Please enter a question."))
		return errors.New("empty question")
	}
	asker, err := a.openChain(ctx)
	if err != nil {
		return err
	}
	answer, err := asker.Ask(ctx, question)
	if err != nil {
		a.println(tui.Error(fmt.Sprintf("An error occurred: %v", err)))
		return err
	}
	a.println(tui.RenderAnswer(answer, a.summarizer))
	return nil
}

func (a *App) openChain(ctx context.Context) (domain.Asker, error) {
	a.println(tui.Info("Loading vector store..."))
	store, err := a.rag.LoadVectorStore(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			a.println(tui.Warn("No document store found. Please index documents first."))
		} else {
			a.println(tui.Error(fmt.Sprintf("Failed to start chat: %v", err)))
			a.println(tui.Warn("Make sure you have indexed documents first (Option 1)"))
		}
		return nil, err
	}
	a.println(tui.Info("Creating QA chain..."))
	asker, err := a.rag.NewQAChain(store)
	if err != nil {
		a.println(tui.Error(fmt.Sprintf("Failed to start chat: %v", err)))
		a.println(tui.Warn("Make sure your OPENAI_API_KEY is valid"))
		return nil, err
	}
	return asker, nil
}

// pause waits for Enter. It reports false once input is exhausted.
func (a *App) pause() bool {
	fmt.Fprint(a.out, "\nPress Enter to continue...")
	_, err := a.in.ReadString('\n')
	fmt.Fprintln(a.out)
	return err == nil
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}
