package parser

import (
	"context"
	"path/filepath"

	"multimodal-rag/internal/models"
)

// Extractor turns one file into per-page units of text and images.
type Extractor interface {
	Extract(ctx context.Context, filePath string) ([]models.ExtractedUnit, error)
}

// Registry maps a file kind to the extractor handling it.
type Registry map[models.Kind]Extractor

const defaultPageNumber = 1

// NewRegistry returns the extractors for every supported kind.
func NewRegistry() Registry {
	return Registry{
		models.KindPDF:  NewPDFExtractor(),
		models.KindText: TextExtractor{},
		models.KindWord: DocxExtractor{},
	}
}

// For returns the extractor for kind, if any.
func (r Registry) For(kind models.Kind) (Extractor, bool) {
	e, ok := r[kind]
	return e, ok
}

func sourceName(filePath string) string {
	return filepath.Base(filePath)
}
