// Package tesseract provides an OCR engine adapter using the system
// tesseract binary. PDF pages are rasterised with poppler's pdftoppm
// before recognition.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Default configuration values.
const (
	DefaultLanguage = "eng"
	DefaultDPI      = 300

	tesseractBinary = "tesseract"
	pdftoppmBinary  = "pdftoppm"
)

// Config holds configuration for the tesseract engine.
type Config struct {
	// Language is the tesseract language pack (default: eng).
	Language string

	// DPI is the rasterisation resolution for PDF pages (default: 300).
	DPI int
}

// Engine recognises text using the tesseract CLI.
type Engine struct {
	language string
	dpi      int
}

// New creates a tesseract OCR engine.
func New(cfg Config) *Engine {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	return &Engine{
		language: cfg.Language,
		dpi:      cfg.DPI,
	}
}

// Available reports whether the tesseract binary is installed.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(tesseractBinary)
	return err == nil
}

// ImageText runs OCR over a single image file.
func (e *Engine) ImageText(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath(tesseractBinary)
	if err != nil {
		return "", fmt.Errorf("%s not installed: %w", tesseractBinary, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, path, "stdout", "-l", e.language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w (%s)", tesseractBinary, err,
			strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// PDFText rasterises every PDF page and runs OCR over each, joining the
// results with page markers.
func (e *Engine) PDFText(ctx context.Context, path string) (string, error) {
	pages, cleanup, err := e.rasterise(ctx, path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	var sb strings.Builder
	for i, page := range pages {
		text, err := e.ImageText(ctx, page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i+1, err)
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s", i+1, text)
		logger.Debug("OCR extracted %d chars from page %d of %s", len(text), i+1, path)
	}
	return sb.String(), nil
}

// rasterise converts PDF pages to PNG files in a temp directory and
// returns them in page order.
func (e *Engine) rasterise(ctx context.Context, path string) ([]string, func(), error) {
	bin, err := exec.LookPath(pdftoppmBinary)
	if err != nil {
		return nil, nil, fmt.Errorf("%s not installed: %w", pdftoppmBinary, err)
	}

	dir, err := os.MkdirTemp("", "paperbase-ocr-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	var stderr bytes.Buffer
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, bin,
		"-png", "-r", fmt.Sprintf("%d", e.dpi), path, prefix)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%s: %w (%s)", pdftoppmBinary, err,
			strings.TrimSpace(stderr.String()))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdf produced no pages")
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)

	return pages, cleanup, nil
}
