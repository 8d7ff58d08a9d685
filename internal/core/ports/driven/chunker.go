package driven

import "github.com/paperbase/paperbase/internal/core/domain"

// Chunker splits extracted text into overlapping, size-bounded chunks.
// Degenerate input (empty or blank text) yields an empty sequence, not an
// error.
type Chunker interface {
	// Chunk splits text into ordered chunks for the given document.
	// The union of chunk offset ranges covers the text with no gaps;
	// adjacent chunks overlap by the configured window.
	Chunk(documentID, text string) ([]domain.Chunk, error)
}
