package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"multimodal-rag/internal/models"
)

type stubRetriever struct {
	docs []models.IndexedDocument
	err  error
}

func (s stubRetriever) Invoke(context.Context, string) ([]models.IndexedDocument, error) {
	return s.docs, s.err
}

type stubModel struct {
	reply    string
	messages []llms.MessageContent
	calls    int
}

func (s *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	s.calls++
	s.messages = messages
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func imageDoc(t *testing.T, dir, name string) models.IndexedDocument {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))
	return models.IndexedDocument{
		Content:  "chart of " + name,
		Metadata: models.Metadata{Source: "deck.pdf", PageNo: 2, Type: models.DocTypeImage, ImagePath: path},
	}
}

func TestAnswerBuildsPromptWithImages(t *testing.T) {
	dir := t.TempDir()
	docs := []models.IndexedDocument{
		{Content: "Revenue grew 12%.", Metadata: models.Metadata{Source: "deck.pdf", PageNo: 1, Type: models.DocTypeText}},
		imageDoc(t, dir, "deck_2_1.png"),
		imageDoc(t, dir, "deck_2_2.png"),
		imageDoc(t, dir, "deck_2_3.png"),
		{Content: "Revenue grew 12% again.", Metadata: models.Metadata{Source: "deck.pdf", PageNo: 1, Type: models.DocTypeText}},
	}
	llm := &stubModel{reply: "<think>reasoning</think>Revenue grew 12% (deck.pdf, 1)."}
	r := NewRAG(stubRetriever{docs: docs}, llm, Options{MaxImages: 2})

	resp, err := r.Answer(context.Background(), "  How did revenue change?  ")
	require.NoError(t, err)

	assert.Equal(t, "How did revenue change?", resp.Query)
	assert.Equal(t, "Revenue grew 12% (deck.pdf, 1).", resp.Content)
	assert.Len(t, resp.Documents, 5)

	// duplicate text citation collapses to one line
	assert.Len(t, strings.Split(resp.References, "\n"), 4)
	assert.Contains(t, resp.References, "Source: deck.pdf, Page: 1, Type: Text")

	require.Len(t, llm.messages, 1)
	parts := llm.messages[0].Parts
	require.Len(t, parts, 3)
	prompt, ok := parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, prompt.Text, "Revenue grew 12%.")
	assert.Contains(t, prompt.Text, "How did revenue change?")
	for _, p := range parts[1:] {
		_, ok := p.(llms.ImageURLContent)
		assert.True(t, ok)
	}
}

func TestAnswerSkipsUnreadableImage(t *testing.T) {
	docs := []models.IndexedDocument{{
		Content:  "a diagram",
		Metadata: models.Metadata{Source: "x.pdf", PageNo: 1, Type: models.DocTypeImage, ImagePath: "/missing/x_1_1.png"},
	}}
	llm := &stubModel{reply: "answer"}
	r := NewRAG(stubRetriever{docs: docs}, llm, Options{MaxImages: 3})

	_, err := r.Answer(context.Background(), "what is shown?")
	require.NoError(t, err)
	assert.Len(t, llm.messages[0].Parts, 1)
}

func TestAnswerWithoutDocumentsSkipsModel(t *testing.T) {
	llm := &stubModel{reply: "unused"}
	r := NewRAG(stubRetriever{}, llm, Options{MaxImages: 1})

	resp, err := r.Answer(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, resp.Content)
	assert.Empty(t, resp.References)
	assert.Zero(t, llm.calls)
}

func TestAnswerErrors(t *testing.T) {
	r := NewRAG(stubRetriever{}, &stubModel{}, Options{})
	_, err := r.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	boom := errors.New("store offline")
	r = NewRAG(stubRetriever{err: boom}, &stubModel{}, Options{})
	_, err = r.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

