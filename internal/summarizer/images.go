package summarizer

import (
	"fmt"
	"os"
	"path/filepath"

	"multimodal-rag/internal/models"
)

// ImagePath is where an extracted image is written:
// {outputDir}/{source base name}_{page}_{index}.{ext}. The source extension
// is kept so report.pdf and report.PDF never share an image file.
func ImagePath(outputDir, sourceName string, img models.ImageBlob) string {
	base := filepath.Base(sourceName)
	ext := img.Ext
	if ext == "" {
		ext = "png"
	}
	return filepath.Join(outputDir, fmt.Sprintf("%s_%d_%d.%s", base, img.PageNo, img.Index, ext))
}

// SaveImage writes img under outputDir and returns its path. An existing
// file at that path is overwritten.
func SaveImage(outputDir, sourceName string, img models.ImageBlob) (string, error) {
	if len(img.Data) == 0 {
		return "", models.NewError(models.ErrValidation, "save image", "image %d on page %d of %s is empty", img.Index, img.PageNo, sourceName)
	}
	path := ImagePath(outputDir, sourceName, img)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return path, nil
}
