package db

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"multimodal-rag/internal/helper"
	"multimodal-rag/internal/models"
)

// Store is a DocumentStore backed by Postgres with pgvector.
type Store struct {
	db       *bun.DB
	embedder embeddings.Embedder
}

func NewStore(db *bun.DB, embedder embeddings.Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

func (s *Store) AddDocuments(ctx context.Context, docs []models.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	rows := make([]Document, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			if id, err = helper.GenerateUUID(); err != nil {
				return err
			}
		}
		rows[i] = Document{
			ID:        id,
			Content:   d.Content,
			Source:    d.Metadata.Source,
			PageNo:    d.Metadata.PageNo,
			Type:      string(d.Metadata.Type),
			ImagePath: d.Metadata.ImagePath,
			Embedding: pgvector.NewVector(vectors[i]),
		}
	}

	if err := StoreDocuments(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	log.Debug().Int("documents", len(rows)).Msg("Stored documents in postgres")
	return nil
}

// AsRetriever supports plain similarity search only.
func (s *Store) AsRetriever(searchType string, topK int) (models.Retriever, error) {
	if searchType != models.SearchSimilarity {
		return nil, models.NewError(models.ErrConfiguration, "as retriever", "pgvector store does not support search type %q", searchType)
	}
	if topK <= 0 {
		return nil, models.NewError(models.ErrValidation, "as retriever", "top_k must be positive, got %d", topK)
	}
	return &retriever{s: s, topK: topK}, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return CountDocuments(ctx, s.db)
}

// Reset drops and recreates the documents table.
func (s *Store) Reset(ctx context.Context) error {
	if err := DropDocuments(ctx, s.db); err != nil {
		return fmt.Errorf("failed to drop documents: %w", err)
	}
	return InitDB(ctx, s.db)
}

type retriever struct {
	s    *Store
	topK int
}

func (r *retriever) Invoke(ctx context.Context, query string) ([]models.IndexedDocument, error) {
	if query == "" {
		return nil, models.NewError(models.ErrValidation, "retrieve", "query is empty")
	}
	vec, err := r.s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := SearchDocuments(ctx, r.s.db, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	docs := make([]models.IndexedDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.IndexedDocument{
			ID:      row.ID,
			Content: row.Content,
			Metadata: models.Metadata{
				Source:    row.Source,
				PageNo:    row.PageNo,
				Type:      models.DocType(row.Type),
				ImagePath: row.ImagePath,
			},
			Score: row.Score,
		})
	}
	return docs, nil
}
