package driven

import "context"

// LLMService generates text from prompts.
// This is an optional service - when nil, grounded answers and document
// summaries are disabled.
type LLMService interface {
	// GenerateAnswer answers a question using only the provided context
	// passages. The model is instructed to refuse when the context does
	// not contain the answer.
	GenerateAnswer(ctx context.Context, question string, passages []string) (string, error)

	// Summarise creates a summary of document content.
	Summarise(ctx context.Context, content string, maxLength int) (string, error)

	// Close releases resources.
	Close() error
}
