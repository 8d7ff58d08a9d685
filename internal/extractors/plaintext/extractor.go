// Package plaintext extracts text documents by reading them directly.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/paperbase/paperbase/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// MediaTypes returns the MIME types this extractor handles.
func (e *Extractor) MediaTypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
		"text/html",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract reads the file body as UTF-8 text. Never uses OCR.
func (e *Extractor) Extract(_ context.Context, path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading file: %w", err)
	}
	return string(data), false, nil
}
