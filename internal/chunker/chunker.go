// Package chunker splits text into fixed-size, overlapping chunks.
package chunker

import "multimodal-rag/internal/models"

// Splitter cuts text into chunks of Size runes where neighbours share
// Overlap runes.
type Splitter struct {
	Size    int
	Overlap int
}

// New validates the chunking parameters. An overlap that is not strictly
// smaller than size would never advance, so it is rejected up front.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, models.NewError(models.ErrConfiguration, "new splitter", "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, models.NewError(models.ErrConfiguration, "new splitter", "chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Splitter{Size: size, Overlap: overlap}, nil
}

// Split returns the chunks of text in order. Chunk i starts at rune
// i*(Size-Overlap); the last chunk ends at the end of text. Empty input
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.Size {
		return []string{text}
	}

	step := s.Size - s.Overlap
	out := make([]string, 0, (len(runes)-s.Overlap+step-1)/step)
	for start := 0; ; start += step {
		end := min(start+s.Size, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// Split is a one-shot helper around New and Splitter.Split.
func Split(text string, size, overlap int) ([]string, error) {
	s, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}
