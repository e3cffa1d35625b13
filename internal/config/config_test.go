package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-rag/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, defaultChunkSize, cfg.TextSplitter.ChunkSize)
	assert.Equal(t, defaultChunkOverlap, cfg.TextSplitter.ChunkOverlap)
	assert.Equal(t, models.DefaultImageDirName, cfg.Settings.ImageDirectoryName)
	assert.Equal(t, "chromem", cfg.VectorDB.Type)
	assert.Equal(t, models.SearchSimilarity, cfg.VectorDB.Retriever.SearchAlgorithm)
	assert.Equal(t, 4*defaultTopK, cfg.VectorDB.Retriever.FetchK)
	assert.Equal(t, defaultMaxImages, cfg.VectorDB.Retriever.MaxImages)
	assert.InDelta(t, defaultLambda, cfg.VectorDB.Retriever.Lambda, 1e-6)
	assert.Equal(t, "sk-test", cfg.LLM.Key)
}

func TestLoadConfigKeepsExplicitZeroImagesAndLambda(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
vector_db:
  retriever:
    search_algorithm: mmr
    max_images: 0
    lambda: 0
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.VectorDB.Retriever.MaxImages)
	assert.Zero(t, cfg.VectorDB.Retriever.Lambda)
}

func TestLoadConfigDefaultsImagesAndLambdaWhenAbsent(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
vector_db:
  retriever:
    top_k: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxImages, cfg.VectorDB.Retriever.MaxImages)
	assert.InDelta(t, defaultLambda, cfg.VectorDB.Retriever.Lambda, 1e-6)
}

func TestLoadConfigRejectsOutOfRangeRetrieverKnobs(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: k
vector_db:
  retriever:
    max_images: -1
    lambda: 1.5
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Contains(t, err.Error(), "max_images")
	assert.Contains(t, err.Error(), "lambda")
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfig(t, `
settings:
  input_folder: /srv/docs
  image_directory_name: images
llm:
  provider: ollama
  api_key: from-file
  text_image_model: llava
vector_db:
  retriever:
    search_algorithm: mmr
    top_k: 3
text_splitter:
  chunk_size: 500
  chunk_overlap: 0
`)
	t.Setenv("OPENAI_API_KEY", "ignored")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Settings.InputFolder)
	assert.Equal(t, "images", cfg.Settings.ImageDirectoryName)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "ollama", cfg.VectorDB.EmbeddingProvider)
	assert.Equal(t, "llava", cfg.LLM.AnswerModel)
	assert.Equal(t, "from-file", cfg.LLM.Key)
	assert.Equal(t, models.SearchMMR, cfg.VectorDB.Retriever.SearchAlgorithm)
	assert.Equal(t, 12, cfg.VectorDB.Retriever.FetchK)
	assert.Equal(t, 500, cfg.TextSplitter.ChunkSize)
	assert.Equal(t, 0, cfg.TextSplitter.ChunkOverlap)
}

func TestLoadConfigRejectsOverlapNotBelowSize(t *testing.T) {
	path := writeConfig(t, `
text_splitter:
  chunk_size: 100
  chunk_overlap: 100
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "settings: [unclosed")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.LLM.Provider = "bard"
	cfg.VectorDB.Type = "faiss"
	cfg.VectorDB.Retriever.TopK = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown llm provider "bard"`)
	assert.Contains(t, err.Error(), `unknown vector_db type "faiss"`)
	assert.Contains(t, err.Error(), "top_k must be positive")
}
