package llmservice

import (
	"encoding/base64"
	"mime"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// ImageMIMEType sniffs data, falling back to the file extension and then
// to image/png.
func ImageMIMEType(data []byte, ext string) string {
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	if byExt := mime.TypeByExtension("." + strings.TrimPrefix(ext, ".")); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return "image/png"
}

// ImagePart wraps image bytes for a multimodal prompt. OpenAI-compatible
// endpoints take a base64 data URL; ollama takes the raw bytes.
func ImagePart(data []byte, ext string, inlineBinary bool) llms.ContentPart {
	mimeType := ImageMIMEType(data, ext)
	if inlineBinary {
		return llms.BinaryPart(mimeType, data)
	}
	return llms.ImageURLPart("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}
