package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-rag/internal/models"
)

type recordingStore struct {
	docs [][]models.IndexedDocument
	err  error
}

func (s *recordingStore) AddDocuments(_ context.Context, docs []models.IndexedDocument) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, docs)
	return nil
}

func (s *recordingStore) AsRetriever(string, int) (models.Retriever, error) {
	return nil, errors.New("not implemented")
}

func TestInsertTextBuildsMetadata(t *testing.T) {
	store := &recordingStore{}
	err := InsertText(context.Background(), store, []string{"one", "two"}, "/data/in/report.pdf", 4)
	require.NoError(t, err)

	require.Len(t, store.docs, 1)
	docs := store.docs[0]
	require.Len(t, docs, 2)
	for i, want := range []string{"one", "two"} {
		assert.Equal(t, want, docs[i].Content)
		assert.Equal(t, models.Metadata{Source: "report.pdf", PageNo: 4, Type: models.DocTypeText}, docs[i].Metadata)
		assert.NotContains(t, docs[i].Metadata.ToMap(), models.MetaImagePath)
	}
}

func TestInsertImagesBuildsMetadata(t *testing.T) {
	store := &recordingStore{}
	err := InsertImages(context.Background(), store, []string{"a pie chart"}, "in/extracted_images/report_2_1.png", "report.pdf", 2)
	require.NoError(t, err)

	doc := store.docs[0][0]
	assert.Equal(t, "a pie chart", doc.Content)
	assert.Equal(t, models.DocTypeImage, doc.Metadata.Type)
	assert.Equal(t, "in/extracted_images/report_2_1.png", doc.Metadata.ImagePath)
	assert.Equal(t, "in/extracted_images/report_2_1.png", doc.Metadata.ToMap()[models.MetaImagePath])
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(models.DocumentStore) error
	}{
		{"empty text list", func(s models.DocumentStore) error { return InsertText(ctx, s, nil, "a.txt", 1) }},
		{"zero page text", func(s models.DocumentStore) error { return InsertText(ctx, s, []string{"x"}, "a.txt", 0) }},
		{"negative page text", func(s models.DocumentStore) error { return InsertText(ctx, s, []string{"x"}, "a.txt", -3) }},
		{"blank chunk", func(s models.DocumentStore) error { return InsertText(ctx, s, []string{"x", "  \n"}, "a.txt", 1) }},
		{"empty summaries", func(s models.DocumentStore) error { return InsertImages(ctx, s, []string{}, "p.png", "a.pdf", 1) }},
		{"zero page image", func(s models.DocumentStore) error { return InsertImages(ctx, s, []string{"x"}, "p.png", "a.pdf", 0) }},
		{"missing image path", func(s models.DocumentStore) error { return InsertImages(ctx, s, []string{"x"}, "", "a.pdf", 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			err := tt.call(store)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Empty(t, store.docs)
		})
	}
}

func TestInsertWrapsStoreFailure(t *testing.T) {
	cause := errors.New("disk full")
	store := &recordingStore{err: cause}

	err := InsertText(context.Background(), store, []string{"x"}, "a.txt", 1)
	assert.ErrorIs(t, err, models.ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert text documents")

	err = InsertImages(context.Background(), store, []string{"x"}, "p.png", "a.pdf", 1)
	assert.ErrorIs(t, err, models.ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert image documents")
}
