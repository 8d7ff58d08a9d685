// Package chunker splits extracted text into overlapping, offset-tracked
// chunks. It prefers paragraph boundaries, then sentence boundaries, and
// falls back to hard cuts at rune boundaries when a unit exceeds the
// maximum size.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultMaxSize is the default maximum chunk size in bytes.
const DefaultMaxSize = 700

// DefaultOverlap is the default number of overlapping bytes.
const DefaultOverlap = 100

// Chunker splits document text into bounded chunks.
type Chunker struct {
	maxSize int
	overlap int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum chunk size in bytes.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}

	return c
}

// Chunk splits text into ordered chunks for documentID. Every byte of text
// belongs to at least one chunk; adjacent chunks share exactly
// min(overlap, previous chunk length) bytes. Blank input yields no chunks
// and no error.
func (c *Chunker) Chunk(documentID, text string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	n := len(text)
	estimated := n/(c.maxSize-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	seq := 0

	for {
		end := start + c.maxSize
		if end >= n {
			end = n
		} else {
			end = c.cut(text, start, end)
		}

		segment := text[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(documentID, seq),
			DocumentID:  documentID,
			Seq:         seq,
			Start:       start,
			End:         end,
			Text:        segment,
			ContentHash: domain.HashText(segment),
		})

		if end == n {
			break
		}

		seq++
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}

	return chunks, nil
}

// cut picks the chunk end within (start, limit]: the last paragraph break,
// else the last sentence end, else a hard cut at limit adjusted to a rune
// boundary. A boundary is only taken above floor, which keeps chunks at
// least half the maximum size and guarantees forward progress past the
// overlap window.
func (c *Chunker) cut(text string, start, limit int) int {
	floor := start + c.maxSize/2
	if min := start + c.overlap + 1; floor < min {
		floor = min
	}
	if floor > limit {
		floor = limit
	}

	// Paragraph boundary: cut after the blank line.
	if idx := strings.LastIndex(text[floor:limit], "\n\n"); idx >= 0 {
		return floor + idx + 2
	}

	// Sentence boundary: cut after terminal punctuation followed by
	// whitespace.
	for i := limit - 1; i > floor; i-- {
		if isSentenceEnd(text[i]) && i+1 < len(text) && isSpace(text[i+1]) {
			return i + 1
		}
	}

	// Hard cut, backed off to a rune boundary so no code point is split.
	end := limit
	for end > floor && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
