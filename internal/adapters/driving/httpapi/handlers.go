package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// ==================== Request / Response Types ====================

type ingestRequest struct {
	Path string `json:"path"`
}

type documentResponse struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	MediaType     string `json:"media_type,omitempty"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	UsedOCR       bool   `json:"used_ocr"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type queryRequest struct {
	Query  string `json:"query"`
	K      int    `json:"k,omitempty"`
	Dedupe string `json:"dedupe,omitempty"`
}

type passageResponse struct {
	DocumentID string  `json:"document_id"`
	Path       string  `json:"path"`
	Seq        int     `json:"seq"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type queryResponse struct {
	Passages []passageResponse `json:"passages"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer       string            `json:"answer"`
	ContextFound bool              `json:"context_found"`
	Passages     []passageResponse `json:"passages"`
}

type summaryResponse struct {
	DocumentID string `json:"document_id"`
	Summary    string `json:"summary"`
}

func toDocumentResponse(doc *domain.Document) documentResponse {
	resp := documentResponse{
		ID:            doc.ID,
		Path:          doc.Path,
		MediaType:     doc.MediaType,
		Status:        doc.Status.String(),
		FailureReason: doc.FailureReason,
		UsedOCR:       doc.UsedOCR,
	}
	if !doc.CreatedAt.IsZero() {
		resp.CreatedAt = doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !doc.UpdatedAt.IsZero() {
		resp.UpdatedAt = doc.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func toPassageResponses(passages []domain.Passage) []passageResponse {
	out := make([]passageResponse, len(passages))
	for i, p := range passages {
		out[i] = passageResponse{
			DocumentID: p.DocumentID,
			Path:       p.Path,
			Seq:        p.Seq,
			Start:      p.Start,
			End:        p.End,
			Text:       p.Text,
			Score:      p.Score,
		}
	}
	return out
}

// ==================== Handlers ====================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a multipart file upload, writes it under the
// upload directory, and runs the ingestion pipeline on the result. This
// is the route remote clients add documents through; /api/ingest covers
// files already on the server.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploadDir == "" {
		writeError(w, r, errors.New("upload directory not configured"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: multipart field %q is required", domain.ErrInvalidInput, "file"))
		return
	}
	defer file.Close()

	// Uploaded names are untrusted; only the base name survives.
	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		writeError(w, r, fmt.Errorf("%w: missing filename", domain.ErrInvalidInput))
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, r, fmt.Errorf("creating upload directory: %w", err))
		return
	}
	path := filepath.Join(s.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, r, fmt.Errorf("writing upload: %w", err))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, r, fmt.Errorf("writing upload: %w", err))
		return
	}
	if err := dst.Close(); err != nil {
		writeError(w, r, fmt.Errorf("writing upload: %w", err))
		return
	}

	doc, err := s.ingestor.Ingest(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toDocumentResponse(doc))
}

// handleIngest runs the ingestion pipeline for the requested path.
// Responds 202: the document is accepted and processed; poll the status
// route for terminal state when the connection is dropped early.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, r, fmt.Errorf("%w: path is required", domain.ErrInvalidInput))
		return
	}

	doc, err := s.ingestor.Ingest(r.Context(), req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toDocumentResponse(doc))
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingestor.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput))
		return
	}
	if req.K < 0 {
		writeError(w, r, fmt.Errorf("%w: k must not be negative", domain.ErrInvalidInput))
		return
	}

	opts := domain.QueryOptions{K: req.K}
	if req.Dedupe != "" {
		policy := domain.DedupePolicy(req.Dedupe)
		if !policy.IsValid() {
			writeError(w, r, fmt.Errorf("%w: unknown dedupe policy %q",
				domain.ErrInvalidInput, req.Dedupe))
			return
		}
		opts.Dedupe = policy
	}

	passages, err := s.querier.Query(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Passages: toPassageResponses(passages)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		writeError(w, r, domain.ErrLLMUnavailable)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:       answer.Answer,
		ContextFound: answer.ContextFound,
		Passages:     toPassageResponses(answer.Passages),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		writeError(w, r, domain.ErrLLMUnavailable)
		return
	}

	id := r.PathValue("id")
	summary, err := s.answerer.SummariseDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		DocumentID: id,
		Summary:    summary,
	})
}
