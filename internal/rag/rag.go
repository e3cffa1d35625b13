package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"multimodal-rag/internal/llmservice"
	"multimodal-rag/internal/models"
)

const noContextAnswer = "I could not find anything in the indexed documents that answers this question."

type Options struct {
	MaxImages    int
	InlineBinary bool
}

// RAG answers questions from retrieved documents, attaching referenced
// images to the prompt.
type RAG struct {
	retriever models.Retriever
	llm       llms.Model
	opts      Options
	think     *regexp.Regexp
}

func NewRAG(retriever models.Retriever, llm llms.Model, opts Options) *RAG {
	return &RAG{
		retriever: retriever,
		llm:       llm,
		opts:      opts,
		think:     regexp.MustCompile(models.ThinkTag),
	}
}

func (r *RAG) Answer(ctx context.Context, question string) (*models.PromptResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.NewError(models.ErrValidation, "answer", "question is empty")
	}

	docs, err := r.retriever.Invoke(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve documents: %w", err)
	}
	log.Debug().Int("documents", len(docs)).Msg("Retrieved documents")

	response := &models.PromptResponse{
		Query:      question,
		References: references(docs),
		Documents:  docs,
	}
	if len(docs) == 0 {
		response.Content = noContextAnswer
		return response, nil
	}

	parts := []llms.ContentPart{llms.TextPart(fmt.Sprintf(models.AnswerPromptTemplate, buildContext(docs), question))}
	parts = append(parts, r.imageParts(docs)...)
	messages := []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts}}

	content, err := llmservice.GenerateContent(ctx, r.llm, nil, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	response.Content = strings.TrimSpace(r.think.ReplaceAllString(content, ""))
	return response, nil
}

func buildContext(docs []models.IndexedDocument) string {
	sections := make([]string, 0, len(docs))
	for _, d := range docs {
		sections = append(sections, fmt.Sprintf("[%s]\n%s", d.Metadata.Citation(), d.Content))
	}
	return strings.Join(sections, models.ContextSeparator)
}

// references lists each distinct citation once, in retrieval order.
func references(docs []models.IndexedDocument) string {
	seen := map[string]bool{}
	var lines []string
	for _, d := range docs {
		c := d.Metadata.Citation()
		if seen[c] {
			continue
		}
		seen[c] = true
		lines = append(lines, c)
	}
	return strings.Join(lines, "\n")
}

func (r *RAG) imageParts(docs []models.IndexedDocument) []llms.ContentPart {
	var parts []llms.ContentPart
	seen := map[string]bool{}
	for _, d := range docs {
		if len(parts) >= r.opts.MaxImages {
			break
		}
		path := d.Metadata.ImagePath
		if d.Metadata.Type != models.DocTypeImage || path == "" || seen[path] {
			continue
		}
		seen[path] = true

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("image", path).Msg("Referenced image not readable, answering without it")
			continue
		}
		parts = append(parts, llmservice.ImagePart(data, strings.TrimPrefix(filepath.Ext(path), "."), r.opts.InlineBinary))
	}
	return parts
}
