package llmservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type stubModel struct {
	choices []string
	err     error
	calls   int
}

func (s *stubModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := &llms.ContentResponse{}
	for _, c := range s.choices {
		res.Choices = append(res.Choices, &llms.ContentChoice{Content: c})
	}
	return res, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestGenerateContentSkipsBlankChoices(t *testing.T) {
	model := &stubModel{choices: []string{"  ", "the answer"}}

	out, err := GenerateContent(context.Background(), model, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
}

func TestGenerateContentNoContent(t *testing.T) {
	_, err := GenerateContent(context.Background(), &stubModel{}, nil, nil)
	require.Error(t, err)
}

func TestGenerateContentPropagatesError(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := GenerateContent(context.Background(), &stubModel{err: boom}, nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestNewModelUnknownProvider(t *testing.T) {
	_, err := NewModel("bard", "", "", "x")
	require.Error(t, err)
}

func TestNewModelOllamaNeedsNoKey(t *testing.T) {
	llm, err := NewModel(ProviderOllama, "http://localhost:11434", "", "llava")
	require.NoError(t, err)
	assert.NotNil(t, llm)
}
