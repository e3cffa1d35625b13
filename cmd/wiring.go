package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/tmc/langchaingo/embeddings"

	"multimodal-rag/internal/chromemdb"
	"multimodal-rag/internal/config"
	"multimodal-rag/internal/db"
	"multimodal-rag/internal/embedding"
	"multimodal-rag/internal/llmservice"
	"multimodal-rag/internal/models"
	"multimodal-rag/internal/pipeline"
	"multimodal-rag/internal/summarizer"
)

// vectorStore is what the commands need beyond models.DocumentStore.
type vectorStore interface {
	models.DocumentStore
	Reset(ctx context.Context) error
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	v := cfg.VectorDB
	return embedding.NewEmbedder(v.EmbeddingProvider, v.EmbeddingBaseURL, cfg.LLM.Key, v.EmbeddingModel)
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config) (vectorStore, func(), error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	v := cfg.VectorDB
	switch v.Type {
	case "pgvector":
		sqlDB, err := db.ConnectDB(v.Database.Driver, v.Database.DSN, v.Database.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		bunDB := db.NewDB(sqlDB, v.Database.Debug)
		if err := db.InitDB(ctx, bunDB); err != nil {
			_ = bunDB.Close()
			return nil, nil, err
		}
		return db.NewStore(bunDB, embedder), func() { _ = bunDB.Close() }, nil
	default:
		manager, err := chromemdb.NewVectorDBManager(chromemdb.Options{
			Path:           v.PersistDirectory,
			CollectionName: v.CollectionName,
			InMemory:       v.InMemory,
			Compress:       v.Compress,
			EncryptionKey:  v.EncryptionKey,
			FetchK:         v.Retriever.FetchK,
			Lambda:         v.Retriever.Lambda,
			ScoreThreshold: v.Retriever.ScoreThreshold,
		}, embedding.ChromemFunc(embedder))
		if err != nil {
			return nil, nil, err
		}
		if v.InMemory {
			switch err := manager.Import(); {
			case err == nil:
				log.Info().Str("file", manager.ExportPath()).Int("documents", manager.Count()).Msg("Imported collection")
			case errors.Is(err, models.ErrNotFound):
			default:
				return nil, nil, err
			}
		}
		return manager, func() {}, nil
	}
}

func newCache(cfg *config.Config) (summarizer.Cache, func()) {
	c := cfg.Cache
	switch c.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		return summarizer.NewRedisCache(client, time.Duration(c.TTLHours)*time.Hour), func() { _ = client.Close() }
	case "memory":
		return summarizer.NewMemoryCache(), func() {}
	}
	return nil, func() {}
}

func newSummarizer(cfg *config.Config, cache summarizer.Cache) (*summarizer.LLMSummarizer, error) {
	l := cfg.LLM
	llm, err := llmservice.NewModel(l.Provider, l.BaseURL, l.Key, l.TextImageModel)
	if err != nil {
		return nil, err
	}
	return summarizer.NewLLMSummarizer(llm, summarizer.Options{
		Prompt:            l.ImagePrompt,
		InlineBinary:      l.Provider == llmservice.ProviderOllama,
		RequestsPerSecond: l.RequestsPerSecond,
		BreakerFailures:   l.BreakerFailures,
		BreakerTimeout:    time.Duration(l.BreakerTimeoutSeconds) * time.Second,
		Cache:             cache,
	}), nil
}

func newProgressBar(total int) pipeline.Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}
