// Package httpapi exposes the driving ports over HTTP. Routes are plain
// net/http with method-qualified patterns; responses and errors are JSON.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/paperbase/paperbase/internal/core/ports/driving"
	"github.com/paperbase/paperbase/internal/logger"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute // ingest and ask can be slow
	DefaultShutdownTimeout = 10 * time.Second
)

// Server serves the Paperbase HTTP API.
type Server struct {
	ingestor  driving.Ingestor
	querier   driving.Querier
	answerer  driving.Answerer
	documents driving.DocumentService
	uploadDir string

	httpServer *http.Server
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithUploadDir sets the directory uploaded files are written to before
// ingestion. Without it the upload route rejects requests.
func WithUploadDir(dir string) ServerOption {
	return func(s *Server) {
		s.uploadDir = dir
	}
}

// NewServer wires the driving ports into an HTTP server listening on
// port. answerer may be nil when no LLM is configured; its routes then
// report the capability as unavailable.
func NewServer(
	port int,
	ingestor driving.Ingestor,
	querier driving.Querier,
	answerer driving.Answerer,
	documents driving.DocumentService,
	opts ...ServerOption,
) *Server {
	s := &Server{
		ingestor:  ingestor,
		querier:   querier,
		answerer:  answerer,
		documents: documents,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/ingest", s.handleIngest)
	mux.HandleFunc("GET /api/ingest/{id}", s.handleIngestStatus)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/summary", s.handleSummary)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      withRequestID(mux),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
	return s
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	logger.Info("HTTP API listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP API")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// requestIDKey carries the per-request ID through the context.
type requestIDKey struct{}

// withRequestID assigns every request a UUID, echoed in the
// X-Request-ID header and attached to error payloads.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the request's ID, empty when the middleware did not
// run.
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
