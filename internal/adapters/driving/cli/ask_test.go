package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	answerService = &stubAnswerer{answer: &domain.Answer{
		Answer:       "The warranty lasts two years.",
		ContextFound: true,
		Passages: []domain.Passage{
			{DocumentID: "d1", Path: "/docs/warranty.pdf", Seq: 3, Score: 0.88},
		},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "how long is the warranty?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "The warranty lasts two years.")
	assert.Contains(t, buf.String(), "Sources:")
	assert.Contains(t, buf.String(), "/docs/warranty.pdf")
}

func TestAskCmd_RefusalHidesSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	answerService = &stubAnswerer{answer: &domain.Answer{
		Answer:       "I don't have any documents that answer this question.",
		ContextFound: false,
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "what colour is the moon?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Sources:")
}

func TestAskCmd_ErrorsWithoutLLM(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	answerService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no LLM configured")
}
