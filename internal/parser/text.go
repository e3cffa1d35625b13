package parser

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"multimodal-rag/internal/models"
)

// TextExtractor reads a plain text file as a single page.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, filePath string) ([]models.ExtractedUnit, error) {
	name := sourceName(filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, models.WrapError(models.ErrExtraction, "read text file "+name, err)
	}
	if !utf8.Valid(data) {
		return nil, models.WrapError(models.ErrExtraction, "read text file "+name, errors.New("content is not valid UTF-8"))
	}

	text := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	if text == "" {
		return nil, nil
	}
	return []models.ExtractedUnit{{
		SourceName: name,
		PageNo:     defaultPageNumber, // TXT has no pages
		Text:       text,
	}}, nil
}
