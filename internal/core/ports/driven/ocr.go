package driven

import "context"

// OCREngine recognises text in image-based documents. It is an external
// black-box capability; Paperbase never interprets image data itself.
//
// Implementations may include:
//   - Tesseract via the system binary
//   - A hosted OCR HTTP API
type OCREngine interface {
	// ImageText runs OCR over a single image file.
	ImageText(ctx context.Context, path string) (string, error)

	// PDFText rasterises a PDF and runs OCR over every page.
	// Used when the PDF has no usable native text layer.
	PDFText(ctx context.Context, path string) (string, error)

	// Available reports whether the engine can run in this environment
	// (e.g. the tesseract binary is installed).
	Available() bool
}
