// Package extractors converts source documents into plain text.
// A registry selects the highest-priority extractor for a document's MIME
// type; PDF and image extractors fall back to the external OCR engine when
// no native text layer is available.
package extractors
