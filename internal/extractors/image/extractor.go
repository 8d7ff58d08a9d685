// Package image extracts text from image documents via the OCR engine.
package image

import (
	"context"
	"fmt"

	"github.com/paperbase/paperbase/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles image documents. Images have no text layer, so OCR is
// mandatory.
type Extractor struct {
	ocr driven.OCREngine
}

// New creates an image extractor backed by the given OCR engine.
func New(ocr driven.OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// MediaTypes returns the MIME types this extractor handles.
func (e *Extractor) MediaTypes() []string {
	return []string{
		"image/png",
		"image/jpeg",
		"image/tiff",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract runs OCR over the image.
func (e *Extractor) Extract(ctx context.Context, path string) (string, bool, error) {
	if e.ocr == nil || !e.ocr.Available() {
		return "", false, fmt.Errorf("image document requires OCR, which is unavailable")
	}

	text, err := e.ocr.ImageText(ctx, path)
	if err != nil {
		return "", false, fmt.Errorf("ocr: %w", err)
	}
	return text, true, nil
}
