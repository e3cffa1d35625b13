// Package indexer turns chunks and image summaries into documents with
// provenance metadata and hands them to a DocumentStore.
package indexer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"multimodal-rag/internal/models"
)

// InsertText stores one Text document per chunk.
func InsertText(ctx context.Context, store models.DocumentStore, texts []string, sourceName string, pageNo int) error {
	const op = "insert text documents"
	if err := validate(op, texts, pageNo); err != nil {
		return err
	}

	meta := models.Metadata{Source: filepath.Base(sourceName), PageNo: pageNo, Type: models.DocTypeText}
	if err := store.AddDocuments(ctx, build(texts, meta)); err != nil {
		return models.WrapError(models.ErrStore, op, err)
	}
	log.Debug().Str("source", meta.Source).Int("page", pageNo).Int("chunks", len(texts)).Msg("Indexed text")
	return nil
}

// InsertImages stores one Image document per summary, all pointing at imagePath.
func InsertImages(ctx context.Context, store models.DocumentStore, summaries []string, imagePath, sourceName string, pageNo int) error {
	const op = "insert image documents"
	if err := validate(op, summaries, pageNo); err != nil {
		return err
	}
	if imagePath == "" {
		return models.NewError(models.ErrValidation, op, "image path is empty")
	}

	meta := models.Metadata{
		Source:    filepath.Base(sourceName),
		PageNo:    pageNo,
		Type:      models.DocTypeImage,
		ImagePath: imagePath,
	}
	if err := store.AddDocuments(ctx, build(summaries, meta)); err != nil {
		return models.WrapError(models.ErrStore, op, err)
	}
	log.Debug().Str("source", meta.Source).Int("page", pageNo).Str("image", imagePath).Msg("Indexed image summaries")
	return nil
}

func validate(op string, contents []string, pageNo int) error {
	if len(contents) == 0 {
		return models.NewError(models.ErrValidation, op, "no content to index")
	}
	if pageNo < 1 {
		return models.NewError(models.ErrValidation, op, "page number must be >= 1, got %d", pageNo)
	}
	for i, c := range contents {
		if strings.TrimSpace(c) == "" {
			return models.NewError(models.ErrValidation, op, "entry %d is blank", i)
		}
	}
	return nil
}

func build(contents []string, meta models.Metadata) []models.IndexedDocument {
	docs := make([]models.IndexedDocument, len(contents))
	for i, c := range contents {
		docs[i] = models.IndexedDocument{Content: c, Metadata: meta}
	}
	return docs
}

