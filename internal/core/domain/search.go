package domain

const unknownDescription = "Unknown"

// DedupePolicy controls how query results are deduplicated by document.
type DedupePolicy string

// Available dedupe policies.
const (
	// DedupeBest keeps only the best-scoring chunk per document.
	DedupeBest DedupePolicy = "best"

	// DedupeAll keeps every matching chunk, including several from the
	// same document.
	DedupeAll DedupePolicy = "all"
)

// IsValid returns true if the dedupe policy is recognised.
func (p DedupePolicy) IsValid() bool {
	return p == DedupeBest || p == DedupeAll
}

// MismatchPolicy controls behaviour when the query embedding model differs
// from the model the index was built with.
type MismatchPolicy string

// Available mismatch policies.
const (
	// MismatchReject fails the query with ErrStaleIndex.
	MismatchReject MismatchPolicy = "reject"

	// MismatchReembed re-embeds all stored chunks with the current model
	// before serving the query.
	MismatchReembed MismatchPolicy = "reembed"
)

// IsValid returns true if the mismatch policy is recognised.
func (p MismatchPolicy) IsValid() bool {
	return p == MismatchReject || p == MismatchReembed
}

// Description returns a human-readable description of the policy.
func (p MismatchPolicy) Description() string {
	switch p {
	case MismatchReject:
		return "Reject queries against a stale index"
	case MismatchReembed:
		return "Re-embed the corpus with the current model"
	default:
		return unknownDescription
	}
}

// QueryOptions tunes a single similarity query.
type QueryOptions struct {
	// K is the number of passages to return. Zero means the configured
	// default.
	K int

	// Dedupe overrides the configured dedupe policy when non-empty.
	Dedupe DedupePolicy
}

// Passage is a retrieved chunk with provenance for citation.
type Passage struct {
	// DocumentID identifies the source document.
	DocumentID string

	// Path is the source document path.
	Path string

	// Seq is the chunk's ordinal position within the document.
	Seq int

	// Start and End are the chunk's byte offsets in the extracted text.
	Start int
	End   int

	// Text is the chunk content.
	Text string

	// Score is the similarity score, higher is more relevant.
	Score float64
}

// Answer is a grounded response to a natural-language question.
type Answer struct {
	// Answer is the generated response text.
	Answer string

	// ContextFound is false when retrieval produced no passages and the
	// answer is a canned refusal.
	ContextFound bool

	// Passages are the retrieved chunks the answer is grounded on.
	Passages []Passage
}
