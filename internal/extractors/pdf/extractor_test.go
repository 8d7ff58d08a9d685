package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOCR struct {
	text      string
	err       error
	available bool
	called    bool
}

func (f *fakeOCR) Available() bool { return f.available }

func (f *fakeOCR) PDFText(_ context.Context, _ string) (string, error) {
	f.called = true
	return f.text, f.err
}

func (f *fakeOCR) ImageText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func withLayer(text string, err error) Option {
	return func(e *Extractor) {
		e.textLayer = func(_ context.Context, _ string) (string, error) {
			return text, err
		}
	}
}

func TestExtract_UsesTextLayer(t *testing.T) {
	ocr := &fakeOCR{available: true}
	layer := "This report covers the quarterly results in considerable detail, " +
		"well past the one hundred character threshold for native extraction."
	e := New(ocr, withLayer(layer, nil))

	text, usedOCR, err := e.Extract(context.Background(), "report.pdf")

	require.NoError(t, err)
	assert.Equal(t, layer, text)
	assert.False(t, usedOCR)
	assert.False(t, ocr.called, "OCR must not run when the text layer suffices")
}

func TestExtract_FallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{available: true, text: "recovered by ocr"}
	e := New(ocr, withLayer("   \n  ", nil))

	text, usedOCR, err := e.Extract(context.Background(), "scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, "recovered by ocr", text)
	assert.True(t, usedOCR)
}

func TestExtract_ThresholdCountsNonWhitespace(t *testing.T) {
	// Whitespace padding must not count towards the threshold.
	layer := "x"
	for len(layer) < 99 {
		layer += " y"
	}
	ocr := &fakeOCR{available: true, text: "ocr text"}
	e := New(ocr, withLayer(layer, nil))

	_, usedOCR, err := e.Extract(context.Background(), "thin.pdf")

	require.NoError(t, err)
	assert.True(t, usedOCR)
}

func TestExtract_NoOCRConfigured(t *testing.T) {
	e := New(nil, withLayer("", nil))

	_, _, err := e.Extract(context.Background(), "scan.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR is unavailable")
}

func TestExtract_OCRNotAvailable(t *testing.T) {
	ocr := &fakeOCR{available: false}
	e := New(ocr, withLayer("", nil))

	_, _, err := e.Extract(context.Background(), "scan.pdf")

	require.Error(t, err)
	assert.False(t, ocr.called)
}

func TestExtract_OCRFailure(t *testing.T) {
	ocr := &fakeOCR{available: true, err: errors.New("tesseract exploded")}
	e := New(ocr, withLayer("", nil))

	_, _, err := e.Extract(context.Background(), "scan.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr fallback")
}

func TestExtract_CustomThreshold(t *testing.T) {
	ocr := &fakeOCR{available: true, text: "ocr"}
	e := New(ocr, WithOCRThreshold(5), withLayer("abcdef", nil))

	text, usedOCR, err := e.Extract(context.Background(), "short.pdf")

	require.NoError(t, err)
	assert.False(t, usedOCR)
	assert.Equal(t, "abcdef", text)
}

func TestMeaningfulLen(t *testing.T) {
	assert.Equal(t, 0, meaningfulLen(" \t\n\r"))
	assert.Equal(t, 3, meaningfulLen(" a b c "))
}
