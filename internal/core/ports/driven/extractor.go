package driven

import "context"

// Extractor converts a source document into plain text.
// Each extractor handles specific MIME types (e.g. PDF, plain text).
type Extractor interface {
	// MediaTypes returns the MIME types this extractor handles.
	MediaTypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Specialised extractors should return 50-100, fallbacks 1-9.
	Priority() int

	// Extract returns the plain text of the document at path.
	// usedOCR reports whether the text came from OCR rather than a
	// native text layer.
	Extract(ctx context.Context, path string) (text string, usedOCR bool, err error)
}

// ExtractorRegistry selects an extractor by media type and runs it.
type ExtractorRegistry interface {
	// Register adds an extractor to the registry.
	Register(e Extractor)

	// Extract picks the highest-priority extractor for mediaType and
	// runs it. Returns domain.ErrUnsupportedType when nothing handles
	// the media type.
	Extract(ctx context.Context, path, mediaType string) (text string, usedOCR bool, err error)
}
