package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"multimodal-rag/internal/models"
)

type Config struct {
	Settings     SettingsConfig     `yaml:"settings"`
	LLM          LLMConfig          `yaml:"llm"`
	VectorDB     VectorDBConfig     `yaml:"vector_db"`
	TextSplitter TextSplitterConfig `yaml:"text_splitter"`
	Cache        CacheConfig        `yaml:"cache"`
}

type SettingsConfig struct {
	InputFolder         string `yaml:"input_folder"`
	OutputFolder        string `yaml:"output_folder"`
	OutputExcelFilename string `yaml:"output_excel_filename"`
	ImageDirectoryName  string `yaml:"image_directory_name"`
	LogLevel            string `yaml:"log_level"`
	LogFile             string `yaml:"log_file"`
	MetricsTextfile     string `yaml:"metrics_textfile"`
}

type LLMConfig struct {
	Provider              string  `yaml:"provider"`
	BaseURL               string  `yaml:"base_url"`
	Key                   string  `yaml:"api_key"`
	TextImageModel        string  `yaml:"text_image_model"`
	AnswerModel           string  `yaml:"answer_model"`
	ImagePrompt           string  `yaml:"image_prompt"`
	RequestsPerSecond     float64 `yaml:"requests_per_second"`
	BreakerFailures       uint32  `yaml:"breaker_failures"`
	BreakerTimeoutSeconds int     `yaml:"breaker_timeout_seconds"`
}

type VectorDBConfig struct {
	Type              string          `yaml:"type"`
	EmbeddingProvider string          `yaml:"embedding_provider"`
	EmbeddingBaseURL  string          `yaml:"embedding_base_url"`
	EmbeddingModel    string          `yaml:"embedding_model_name"`
	CollectionName    string          `yaml:"collection_name"`
	PersistDirectory  string          `yaml:"persist_directory"`
	InMemory          bool            `yaml:"in_memory"`
	Compress          bool            `yaml:"compress"`
	EncryptionKey     string          `yaml:"encryption_key"`
	Retriever         RetrieverConfig `yaml:"retriever"`
	Database          DatabaseConfig  `yaml:"database"`
}

type RetrieverConfig struct {
	SearchAlgorithm string  `yaml:"search_algorithm"`
	TopK            int     `yaml:"top_k"`
	MaxImages       int     `yaml:"max_images"`
	ScoreThreshold  float32 `yaml:"score_threshold"`
	FetchK          int     `yaml:"fetch_k"`
	Lambda          float32 `yaml:"lambda"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type TextSplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type CacheConfig struct {
	Type          string `yaml:"type"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLHours      int    `yaml:"ttl_hours"`
}

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultTopK         = 5
	defaultMaxImages    = 2
	defaultLambda       = 0.5
)

// LoadConfig reads a yaml config, fills in defaults and validates it. A
// missing file yields the defaults. Secrets may come from a .env file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := New()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, models.WrapError(models.ErrConfiguration, "parse config "+path, err)
		}
	}

	cfg.ApplyDefaults()
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New returns a Config seeded with the defaults where 0 is a meaningful
// setting. yaml only overwrites keys present in the file, so an explicit
// max_images: 0 or lambda: 0 survives.
func New() *Config {
	return &Config{
		VectorDB: VectorDBConfig{
			Retriever: RetrieverConfig{
				MaxImages: defaultMaxImages,
				Lambda:    defaultLambda,
			},
		},
	}
}

// ApplyDefaults fills every unset knob. Chunk overlap is only defaulted
// together with an unset chunk size so an explicit 0 overlap survives.
func (c *Config) ApplyDefaults() {
	s := &c.Settings
	if s.InputFolder == "" {
		s.InputFolder = "./data"
	}
	if s.OutputFolder == "" {
		s.OutputFolder = "./output"
	}
	if s.OutputExcelFilename == "" {
		s.OutputExcelFilename = "results.xlsx"
	}
	if s.ImageDirectoryName == "" {
		s.ImageDirectoryName = models.DefaultImageDirName
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	l := &c.LLM
	if l.Provider == "" {
		l.Provider = "openai"
	}
	if l.TextImageModel == "" {
		l.TextImageModel = "gpt-4o-mini"
	}
	if l.AnswerModel == "" {
		l.AnswerModel = l.TextImageModel
	}
	if l.ImagePrompt == "" {
		l.ImagePrompt = models.ImageSummaryPrompt
	}
	if l.BreakerFailures == 0 {
		l.BreakerFailures = 5
	}
	if l.BreakerTimeoutSeconds == 0 {
		l.BreakerTimeoutSeconds = 30
	}

	v := &c.VectorDB
	if v.Type == "" {
		v.Type = "chromem"
	}
	if v.EmbeddingProvider == "" {
		v.EmbeddingProvider = l.Provider
	}
	if v.EmbeddingBaseURL == "" {
		v.EmbeddingBaseURL = l.BaseURL
	}
	if v.EmbeddingModel == "" {
		v.EmbeddingModel = "text-embedding-3-small"
	}
	if v.CollectionName == "" {
		v.CollectionName = "documents"
	}
	if v.PersistDirectory == "" {
		v.PersistDirectory = "./chromemdb"
	}
	r := &v.Retriever
	if r.SearchAlgorithm == "" {
		r.SearchAlgorithm = models.SearchSimilarity
	}
	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.FetchK == 0 {
		r.FetchK = 4 * r.TopK
	}
	if v.Database.Driver == "" {
		v.Database.Driver = "pgdriver"
	}

	if c.TextSplitter.ChunkSize == 0 {
		c.TextSplitter.ChunkSize = defaultChunkSize
		if c.TextSplitter.ChunkOverlap == 0 {
			c.TextSplitter.ChunkOverlap = defaultChunkOverlap
		}
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
}

// Validate rejects settings that would make every file fail the same way.
func (c *Config) Validate() error {
	var problems []string

	ts := c.TextSplitter
	if ts.ChunkSize <= 0 {
		problems = append(problems, fmt.Sprintf("chunk_size must be positive, got %d", ts.ChunkSize))
	}
	if ts.ChunkOverlap < 0 || ts.ChunkOverlap >= ts.ChunkSize {
		problems = append(problems, fmt.Sprintf("chunk_overlap must be in [0, %d), got %d", ts.ChunkSize, ts.ChunkOverlap))
	}
	if strings.ContainsAny(c.Settings.ImageDirectoryName, `/\`) {
		problems = append(problems, fmt.Sprintf("image_directory_name must be a plain name, got %q", c.Settings.ImageDirectoryName))
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		problems = append(problems, fmt.Sprintf("unknown llm provider %q", c.LLM.Provider))
	}
	switch c.VectorDB.EmbeddingProvider {
	case "openai", "ollama":
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", c.VectorDB.EmbeddingProvider))
	}
	switch c.VectorDB.Type {
	case "chromem", "pgvector":
	default:
		problems = append(problems, fmt.Sprintf("unknown vector_db type %q", c.VectorDB.Type))
	}
	switch c.VectorDB.Retriever.SearchAlgorithm {
	case models.SearchSimilarity, models.SearchMMR, models.SearchScoreThreshold:
	default:
		problems = append(problems, fmt.Sprintf("unknown search_algorithm %q", c.VectorDB.Retriever.SearchAlgorithm))
	}
	r := c.VectorDB.Retriever
	if r.TopK <= 0 {
		problems = append(problems, fmt.Sprintf("top_k must be positive, got %d", r.TopK))
	}
	if r.MaxImages < 0 {
		problems = append(problems, fmt.Sprintf("max_images must not be negative, got %d", r.MaxImages))
	}
	if r.Lambda < 0 || r.Lambda > 1 {
		problems = append(problems, fmt.Sprintf("lambda must be in [0, 1], got %g", r.Lambda))
	}
	switch c.Cache.Type {
	case "none", "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("unknown cache type %q", c.Cache.Type))
	}

	if len(problems) > 0 {
		return models.NewError(models.ErrConfiguration, "validate config", "%s", strings.Join(problems, "; "))
	}
	return nil
}
