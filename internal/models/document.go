package models

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is the format of an input file, inferred from its extension.
type Kind string

const (
	KindPDF         Kind = "PDF"
	KindText        Kind = "Text"
	KindWord        Kind = "Word"
	KindUnsupported Kind = "Unsupported"
)

// SourceFile is a path plus the kind it was classified as.
type SourceFile struct {
	Path string
	Kind Kind
}

// Name returns the base name of the file.
func (f SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// ClassifyFile infers the kind of path from its extension, case-insensitively.
func ClassifyFile(path string) SourceFile {
	kind := KindUnsupported
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		kind = KindPDF
	case ".txt":
		kind = KindText
	case ".docx":
		kind = KindWord
	}
	return SourceFile{Path: path, Kind: kind}
}

// ImageBlob is an image found on a page. It only lives until it has been
// written to disk and summarized.
type ImageBlob struct {
	Data   []byte
	PageNo int
	Index  int    // 1-based position on the page
	Ext    string // file extension without the dot
}

// ExtractedUnit is one page worth of content. Formats without pages
// produce a single unit with PageNo 1.
type ExtractedUnit struct {
	SourceName string
	PageNo     int
	Text       string
	Images     []ImageBlob
}

// DocType tells text chunks and image summaries apart in the store.
type DocType string

const (
	DocTypeText  DocType = "Text"
	DocTypeImage DocType = "Image"
)

// metadata keys as they are stored in the vector database
const (
	MetaSource    = "Source"
	MetaPageNo    = "PageNo"
	MetaType      = "Type"
	MetaImagePath = "ImagePath"
)

// Metadata is the provenance attached to every indexed document.
type Metadata struct {
	Source    string  `json:"Source"`
	PageNo    int     `json:"PageNo"`
	Type      DocType `json:"Type"`
	ImagePath string  `json:"ImagePath,omitempty"`
}

// IndexedDocument is the unit handed to the vector store.
type IndexedDocument struct {
	ID       string   `json:"id,omitempty"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score,omitempty"`
}

// ToMap flattens the metadata into the string map vector stores accept.
func (m Metadata) ToMap() map[string]string {
	out := map[string]string{
		MetaSource: m.Source,
		MetaPageNo: strconv.Itoa(m.PageNo),
		MetaType:   string(m.Type),
	}
	if m.Type == DocTypeImage {
		out[MetaImagePath] = m.ImagePath
	}
	return out
}

// MetadataFromMap is the inverse of ToMap.
func MetadataFromMap(in map[string]string) (Metadata, error) {
	pageNo, err := strconv.Atoi(in[MetaPageNo])
	if err != nil {
		return Metadata{}, fmt.Errorf("invalid %s %q: %w", MetaPageNo, in[MetaPageNo], err)
	}
	return Metadata{
		Source:    in[MetaSource],
		PageNo:    pageNo,
		Type:      DocType(in[MetaType]),
		ImagePath: in[MetaImagePath],
	}, nil
}

// Citation renders the metadata the way answers reference their sources.
func (m Metadata) Citation() string {
	if m.Type == DocTypeImage {
		return fmt.Sprintf("Source: %s, Page: %d, Type: %s, Image: %s", m.Source, m.PageNo, m.Type, m.ImagePath)
	}
	return fmt.Sprintf("Source: %s, Page: %d, Type: %s", m.Source, m.PageNo, m.Type)
}

// PromptResponse is the outcome of one question.
type PromptResponse struct {
	Query      string
	References string
	Content    string
	Documents  []IndexedDocument
}
