// Package summarizer describes extracted images with a multimodal model.
package summarizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"multimodal-rag/internal/llmservice"
	"multimodal-rag/internal/models"
)

// Summarizer returns one or more descriptions of an image.
type Summarizer interface {
	Summarize(ctx context.Context, image models.ImageBlob) ([]string, error)
}

type Options struct {
	Prompt string
	// InlineBinary sends raw bytes (ollama style) instead of a base64 data URL.
	InlineBinary      bool
	RequestsPerSecond float64
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
	Cache             Cache
}

// LLMSummarizer calls a multimodal chat model, rate limited and behind a
// circuit breaker so an unavailable model fails fast for the rest of a run.
type LLMSummarizer struct {
	llm     llms.Model
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]string]
	think   *regexp.Regexp
}

func NewLLMSummarizer(llm llms.Model, opts Options) *LLMSummarizer {
	if opts.Prompt == "" {
		opts.Prompt = models.ImageSummaryPrompt
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "image-summarizer",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
		},
	})

	return &LLMSummarizer{
		llm:     llm,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		think:   regexp.MustCompile(models.ThinkTag),
	}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, image models.ImageBlob) ([]string, error) {
	if len(image.Data) == 0 {
		return nil, models.NewError(models.ErrValidation, "summarize image", "image %d on page %d has no data", image.Index, image.PageNo)
	}

	key := CacheKey(image.Data)
	if s.opts.Cache != nil {
		cached, ok, err := s.opts.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("Summary cache lookup failed")
		} else if ok && len(cached) > 0 {
			log.Debug().Int("page", image.PageNo).Int("image", image.Index).Msg("Using cached image summary")
			return cached, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}
	summaries, err := s.breaker.Execute(func() ([]string, error) {
		return s.generate(ctx, image)
	})
	if err != nil {
		return nil, fmt.Errorf("summarize image %d on page %d: %w", image.Index, image.PageNo, err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, summaries); err != nil {
			log.Warn().Err(err).Msg("Summary cache store failed")
		}
	}
	return summaries, nil
}

func (s *LLMSummarizer) generate(ctx context.Context, image models.ImageBlob) ([]string, error) {
	messages := []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(s.opts.Prompt),
			llmservice.ImagePart(image.Data, image.Ext, s.opts.InlineBinary),
		},
	}}
	res, err := s.llm.GenerateContent(ctx, messages)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, choice := range res.Choices {
		text := strings.TrimSpace(s.think.ReplaceAllString(choice.Content, ""))
		if text != "" {
			out = append(out, text)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned an empty summary")
	}
	return out, nil
}

