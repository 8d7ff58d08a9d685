package driving

import (
	"context"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// Querier answers similarity queries over the indexed corpus.
type Querier interface {
	// Query embeds text, searches the vector index, deduplicates and
	// ranks results, and returns at most opts.K passages with
	// provenance. Never mutates state except under the reembed mismatch
	// policy.
	Query(ctx context.Context, text string, opts domain.QueryOptions) ([]domain.Passage, error)
}

// Answerer produces grounded natural-language answers and summaries.
type Answerer interface {
	// Answer retrieves context for the question and generates an answer
	// strictly from it.
	Answer(ctx context.Context, question string) (*domain.Answer, error)

	// SummariseDocument summarises a document's extracted text.
	SummariseDocument(ctx context.Context, documentID string) (string, error)
}
