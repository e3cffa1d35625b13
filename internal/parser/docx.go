package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"multimodal-rag/internal/models"
)

// DocxExtractor reads the body paragraphs of a .docx file. Page breaks are
// not resolved, the whole document is reported as page 1.
type DocxExtractor struct{}

func (DocxExtractor) Extract(_ context.Context, filePath string) ([]models.ExtractedUnit, error) {
	name := sourceName(filePath)
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, models.WrapError(models.ErrExtraction, "open docx "+name, err)
	}
	defer r.Close()

	text, err := paragraphText(r.Editable().GetContent())
	if err != nil {
		return nil, models.WrapError(models.ErrExtraction, "parse docx body of "+name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []models.ExtractedUnit{{
		SourceName: name,
		PageNo:     defaultPageNumber,
		Text:       text,
	}}, nil
}

// paragraphText pulls the visible text out of WordprocessingML: runs of
// <w:t> joined per <w:p>, one line per non-empty paragraph.
func paragraphText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if p := strings.TrimSpace(current.String()); p != "" {
		paragraphs = append(paragraphs, p)
	}
	return strings.Join(paragraphs, "\n"), nil
}
