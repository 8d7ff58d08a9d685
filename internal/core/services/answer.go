package services

import (
	"context"
	"fmt"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// RefusalAnswer is returned when retrieval finds nothing to ground an
// answer on. The LLM is never consulted in that case.
const RefusalAnswer = "I don't have any documents that answer this question."

// summaryInputLimit caps how much extracted text is sent for
// summarisation.
const summaryInputLimit = 80000

// summaryMaxWords is the requested summary length.
const summaryMaxWords = 200

// AnswerService produces grounded answers and document summaries. The LLM
// is optional; without it both operations fail with
// domain.ErrLLMUnavailable.
type AnswerService struct {
	querier driving.Querier
	store   driven.DocumentStore
	llm     driven.LLMService
	topK    int
}

// NewAnswerService creates the answer service. llm may be nil.
func NewAnswerService(querier driving.Querier, store driven.DocumentStore, llm driven.LLMService, topK int) *AnswerService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &AnswerService{
		querier: querier,
		store:   store,
		llm:     llm,
		topK:    topK,
	}
}

// Answer retrieves context for the question and generates an answer
// strictly from it. With no retrieved passages the canned refusal is
// returned and ContextFound is false.
func (s *AnswerService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	passages, err := s.querier.Query(ctx, question, domain.QueryOptions{K: s.topK})
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	if len(passages) == 0 {
		logger.Debug("No context found for question, refusing")
		return &domain.Answer{
			Answer:       RefusalAnswer,
			ContextFound: false,
			Passages:     []domain.Passage{},
		}, nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	answer, err := s.llm.GenerateAnswer(ctx, question, texts)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &domain.Answer{
		Answer:       answer,
		ContextFound: true,
		Passages:     passages,
	}, nil
}

// SummariseDocument summarises a document's extracted text, truncated to
// a conservative input limit.
func (s *AnswerService) SummariseDocument(ctx context.Context, documentID string) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.Text == "" {
		return "", fmt.Errorf("%w: document %s has no extracted text",
			domain.ErrInvalidInput, documentID)
	}

	content := doc.Text
	if len(content) > summaryInputLimit {
		content = content[:summaryInputLimit]
	}

	summary, err := s.llm.Summarise(ctx, content, summaryMaxWords)
	if err != nil {
		return "", fmt.Errorf("summarising document: %w", err)
	}
	return summary, nil
}
