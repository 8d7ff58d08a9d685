package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// ==================== Fakes ====================

type stubIngestor struct {
	doc       *domain.Document
	err       error
	refreshed bool
}

func (s *stubIngestor) Ingest(_ context.Context, path string) (*domain.Document, error) {
	if s.doc != nil || s.err != nil {
		return s.doc, s.err
	}
	return &domain.Document{ID: domain.DocumentID(path), Path: path, Status: domain.StatusComplete}, nil
}

func (s *stubIngestor) Status(_ context.Context, _ string) (*domain.Document, error) {
	if s.doc != nil || s.err != nil {
		return s.doc, s.err
	}
	return nil, domain.ErrNotFound
}

func (s *stubIngestor) RefreshEmbeddings(_ context.Context) error {
	s.refreshed = true
	return s.err
}

type stubQuerier struct {
	passages []domain.Passage
	err      error
	gotText  string
	gotOpts  domain.QueryOptions
}

func (s *stubQuerier) Query(_ context.Context, text string, opts domain.QueryOptions) ([]domain.Passage, error) {
	s.gotText = text
	s.gotOpts = opts
	return s.passages, s.err
}

type stubAnswerer struct {
	answer  *domain.Answer
	summary string
	err     error
}

func (s *stubAnswerer) Answer(_ context.Context, _ string) (*domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubAnswerer) SummariseDocument(_ context.Context, _ string) (string, error) {
	return s.summary, s.err
}

type stubDocuments struct {
	docs    []domain.Document
	err     error
	deleted []string
}

func (s *stubDocuments) List(_ context.Context) ([]domain.Document, error) {
	return s.docs, s.err
}

func (s *stubDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return &s.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) Delete(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

// setupTestServices installs fake services so commands run without
// touching real adapters. The returned cleanup restores the originals.
func setupTestServices() func() {
	oldIngest := ingestService
	oldQuery := queryService
	oldAnswer := answerService
	oldDocument := documentService

	ingestService = &stubIngestor{}
	queryService = &stubQuerier{}
	answerService = &stubAnswerer{answer: &domain.Answer{Answer: "stub answer"}}
	documentService = &stubDocuments{}

	return func() {
		ingestService = oldIngest
		queryService = oldQuery
		answerService = oldAnswer
		documentService = oldDocument
	}
}

// ==================== Tests ====================

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "paperbase", rootCmd.Use)
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "query")
	assert.Contains(t, names, "ask")
	assert.Contains(t, names, "document")
	assert.Contains(t, names, "version")
}
