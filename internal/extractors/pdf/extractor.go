// Package pdf extracts text from PDF documents. The native text layer is
// read with poppler's pdftotext; when a PDF yields too little text (a scan
// or image-only document) extraction falls back to the OCR engine.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultOCRThreshold is the minimum number of non-space characters the
// text layer must produce before OCR is skipped.
const DefaultOCRThreshold = 100

// pdftotextBinary is the poppler text extraction tool.
const pdftotextBinary = "pdftotext"

// Extractor handles PDF documents.
type Extractor struct {
	ocr       driven.OCREngine
	threshold int

	// textLayer is swappable for tests.
	textLayer func(ctx context.Context, path string) (string, error)
}

// Option configures the PDF extractor.
type Option func(*Extractor)

// WithOCRThreshold sets the minimum text-layer size before OCR fallback.
func WithOCRThreshold(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.threshold = n
		}
	}
}

// New creates a PDF extractor. ocr may be nil, in which case image-only
// PDFs fail extraction instead of falling back.
func New(ocr driven.OCREngine, opts ...Option) *Extractor {
	e := &Extractor{
		ocr:       ocr,
		threshold: DefaultOCRThreshold,
		textLayer: pdftotext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MediaTypes returns the MIME types this extractor handles.
func (e *Extractor) MediaTypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads the PDF's native text layer, falling back to OCR when the
// layer holds fewer than the threshold of meaningful characters.
func (e *Extractor) Extract(ctx context.Context, path string) (string, bool, error) {
	text, err := e.textLayer(ctx, path)
	if err != nil {
		return "", false, err
	}

	if meaningfulLen(text) >= e.threshold {
		return text, false, nil
	}

	if e.ocr == nil || !e.ocr.Available() {
		return "", false, fmt.Errorf(
			"pdf has no usable text layer (%d chars) and OCR is unavailable",
			meaningfulLen(text))
	}

	logger.Info("PDF text layer too small (%d chars), falling back to OCR: %s",
		meaningfulLen(text), path)

	ocrText, err := e.ocr.PDFText(ctx, path)
	if err != nil {
		return "", false, fmt.Errorf("ocr fallback: %w", err)
	}
	return ocrText, true, nil
}

// pdftotext shells out to poppler and returns the extracted text layer.
func pdftotext(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath(pdftotextBinary)
	if err != nil {
		return "", fmt.Errorf("%s not installed: %w", pdftotextBinary, err)
	}

	var stdout, stderr bytes.Buffer
	// "-" writes the text to stdout; -layout preserves reading order
	// well enough for chunking.
	cmd := exec.CommandContext(ctx, bin, "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w (%s)", pdftotextBinary, err,
			strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// meaningfulLen counts non-whitespace characters.
func meaningfulLen(text string) int {
	n := 0
	for _, r := range text {
		if !strings.ContainsRune(" \t\n\r\f\v", r) {
			n++
		}
	}
	return n
}
