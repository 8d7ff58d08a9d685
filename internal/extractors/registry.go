package extractors

import (
	"context"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/core/ports/driven"
	"github.com/paperbase/paperbase/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry routes extraction requests to the best extractor for a MIME
// type.
type Registry struct {
	extractors []driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e driven.Extractor) {
	r.extractors = append(r.extractors, e)
}

// Extract picks the highest-priority extractor for mediaType and runs it.
func (r *Registry) Extract(ctx context.Context, path, mediaType string) (string, bool, error) {
	e := r.forMediaType(mediaType)
	if e == nil {
		return "", false, domain.ErrUnsupportedType
	}

	logger.Debug("Extracting %s as %s", path, mediaType)
	return e.Extract(ctx, path)
}

// forMediaType returns the highest-priority extractor handling mediaType,
// or nil when none does.
func (r *Registry) forMediaType(mediaType string) driven.Extractor {
	var candidates []driven.Extractor
	for _, e := range r.extractors {
		for _, mt := range e.MediaTypes() {
			if mt == mediaType {
				candidates = append(candidates, e)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority() > candidates[j].Priority()
	})
	return candidates[0]
}

// extensionTypes covers extensions the stdlib mime table misses or maps
// with parameters we don't want.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/plain",
	".text": "text/plain",
	".log":  "text/plain",
	".csv":  "text/plain",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MediaTypeFor detects the MIME type of a document from its file
// extension. Parameters (e.g. charset) are stripped.
func MediaTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return ""
	}
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}
