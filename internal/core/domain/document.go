package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"
)

// Status tracks a document through the ingestion pipeline.
type Status string

// Ingestion pipeline states.
const (
	// StatusPending means the document is registered but not yet processed.
	StatusPending Status = "pending"

	// StatusExtracting means text extraction (possibly OCR) is running.
	StatusExtracting Status = "extracting"

	// StatusChunking means extracted text is being split into chunks.
	StatusChunking Status = "chunking"

	// StatusEmbedding means chunk embeddings are being generated.
	StatusEmbedding Status = "embedding"

	// StatusIndexing means entries are being written to the vector index.
	StatusIndexing Status = "indexing"

	// StatusComplete means the document is fully indexed and queryable.
	StatusComplete Status = "complete"

	// StatusFailed is a terminal state; recovery requires an explicit
	// re-ingestion request.
	StatusFailed Status = "failed"
)

// IsValid returns true if the status is recognised.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusExtracting, StatusChunking, StatusEmbedding,
		StatusIndexing, StatusComplete, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the pipeline will make no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// Document represents a source document tracked by the ingestion pipeline.
type Document struct {
	// ID is derived from the source path; re-ingesting the same file
	// yields the same ID so prior entries are replaced, not duplicated.
	ID string

	// Path is the source location under the documents root.
	Path string

	// MediaType is the detected MIME type (e.g. application/pdf).
	MediaType string

	// ContentHash is the sha256 of the raw file bytes at ingestion time.
	ContentHash string

	// Text is the full extracted text before chunking.
	Text string

	// Status is the current pipeline state.
	Status Status

	// FailureReason records why ingestion failed, if it did.
	FailureReason string

	// UsedOCR is true when the text came from OCR rather than a native
	// text layer.
	UsedOCR bool

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Chunk is a bounded segment of a document's extracted text, the unit of
// embedding and retrieval.
type Chunk struct {
	// ID is deterministic: "<document ID>:<seq>". Upserting the same
	// chunk replaces the previous index entry.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Seq is the ordinal position within the document.
	Seq int

	// Start and End are byte offsets into the extracted text, [Start, End).
	// Adjacent chunks overlap by the configured window; together they
	// cover the full text with no gaps.
	Start int
	End   int

	// Text is the chunk content.
	Text string

	// ContentHash is the sha256 of Text, used for embedding memoisation.
	ContentHash string

	// Embedding is the vector representation, populated during ingestion.
	Embedding []float32
}

// EntryMeta is the provenance carried by an index entry.
type EntryMeta struct {
	DocumentID string
	Path       string
	Seq        int
	Start      int
	End        int
}

// IndexEntry is the persisted (chunk, vector, metadata) triple in the
// vector index. Its lifecycle matches the owning chunk.
type IndexEntry struct {
	ChunkID string
	Vector  []float32
	Meta    EntryMeta
}

// DocumentID derives the stable document identity from a source path.
func DocumentID(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:])
}

// ChunkID builds the deterministic chunk identity for a document position.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s:%d", documentID, seq)
}

// HashText returns the sha256 hex digest of text, the memoisation key for
// embeddings and the chunk content hash.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashBytes returns the sha256 hex digest of raw file content.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
