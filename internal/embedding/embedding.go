package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"multimodal-rag/internal/models"
)

// NewEmbedder creates a langchaingo embedder for the given provider.
func NewEmbedder(provider, baseURL, key, embeddingModel string) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        provider,
		"base_url":        baseURL,
		"embedding_model": embeddingModel,
	}).Msg("Creating embedder")

	var client embeddings.EmbedderClient
	switch provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
			openai.WithEmbeddingModel(embeddingModel),
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
		}
		client = llm
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(embeddingModel)}
		if baseURL != "" {
			opts = append(opts, ollama.WithServerURL(baseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
		}
		client = llm
	default:
		return nil, models.NewError(models.ErrConfiguration, "new embedder", "unknown embedding provider %q", provider)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// ChromemFunc adapts an embedder to the function chromem calls for
// documents and queries that carry no precomputed embedding.
func ChromemFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		return vec, nil
	}
}
