package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "First line.\n\nSecond paragraph with some détail.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := New()
	text, usedOCR, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, content, text)
	assert.False(t, usedOCR, "plain text extraction never uses OCR")
}

func TestExtract_MissingFile(t *testing.T) {
	e := New()
	_, _, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	require.Error(t, err)
}

func TestMediaTypes(t *testing.T) {
	e := New()
	assert.Contains(t, e.MediaTypes(), "text/plain")
	assert.Contains(t, e.MediaTypes(), "text/markdown")
}
