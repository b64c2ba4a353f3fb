package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

// QATemplate is the prompt given to the model. context holds the retrieved
// chunks joined by blank lines.
const QATemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context: {{.context}}

Question: {{.question}}

Answer: `

// QAChain answers questions with a retrieval QA chain.
type QAChain struct {
	chain       chains.RetrievalQA
	temperature float64
	logger      *zap.Logger
}

var _ domain.Asker = (*QAChain)(nil)

// NewQAChain builds a "stuff" retrieval chain over store.
func (s *RAGSystem) NewQAChain(store domain.Store) (domain.Asker, error) {
	s.logger.Info("Creating QA chain")
	if store == nil {
		return nil, errors.New("vector store is empty or not initialized")
	}
	if s.llm == nil {
		return nil, errors.New("language model is not configured")
	}
	prompt := prompts.NewPromptTemplate(QATemplate, []string{"context", "question"})
	stuff := chains.NewStuffDocuments(chains.NewLLMChain(s.llm, prompt))

	var retrieverOpts []vectorstores.Option
	if s.opts.ScoreThreshold > 0 {
		retrieverOpts = append(retrieverOpts, vectorstores.WithScoreThreshold(s.opts.ScoreThreshold))
	}
	qa := chains.NewRetrievalQA(stuff, vectorstores.ToRetriever(store, s.opts.TopK, retrieverOpts...))
	qa.ReturnSourceDocuments = true

	s.logger.Info("QA chain created successfully")
	return &QAChain{chain: qa, temperature: s.opts.Temperature, logger: s.logger}, nil
}

// Ask runs the chain for one question.
func (q *QAChain) Ask(ctx context.Context, question string) (domain.Answer, error) {
	q.logger.Info("Processing query", zap.String("query", question))
	out, err := chains.Call(ctx, q.chain, map[string]any{"query": question}, chains.WithTemperature(q.temperature))
	if err != nil {
		q.logger.Error("Error in chat loop", zap.Error(err))
		return domain.Answer{}, fmt.Errorf("running QA chain: %w", err)
	}
	text, ok := out["text"].(string)
	if !ok {
		return domain.Answer{}, errors.New("QA chain returned no text")
	}
	sources, _ := out["source_documents"].([]schema.Document)
	q.logger.Info("Response generated successfully", zap.Int("sources", len(sources)))
	return domain.Answer{Text: text, Sources: sources}, nil
}
