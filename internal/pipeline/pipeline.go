// Package pipeline walks an input folder and indexes every supported file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"multimodal-rag/internal/chunker"
	"multimodal-rag/internal/helper"
	"multimodal-rag/internal/indexer"
	"multimodal-rag/internal/metrics"
	"multimodal-rag/internal/models"
	"multimodal-rag/internal/parser"
	"multimodal-rag/internal/summarizer"
)

// Progress is advanced once per directory entry.
type Progress interface {
	Add(n int) error
}

type Options struct {
	ImageDirName string
	Metrics      *metrics.IngestMetrics
	NewProgress  func(total int) Progress
}

type Pipeline struct {
	store      models.DocumentStore
	summ       summarizer.Summarizer
	splitter   *chunker.Splitter
	extractors parser.Registry
	opts       Options
}

// FileFailure records why one file was not indexed.
type FileFailure struct {
	Name string
	Err  error
}

// Summary aggregates the outcome of a ProcessAll run.
type Summary struct {
	Processed      int
	Skipped        int
	Failed         []FileFailure
	TextDocuments  int
	ImageDocuments int
}

func New(store models.DocumentStore, summ summarizer.Summarizer, splitter *chunker.Splitter, extractors parser.Registry, opts Options) (*Pipeline, error) {
	switch {
	case store == nil:
		return nil, models.NewError(models.ErrConfiguration, "new pipeline", "document store is required")
	case summ == nil:
		return nil, models.NewError(models.ErrConfiguration, "new pipeline", "summarizer is required")
	case splitter == nil:
		return nil, models.NewError(models.ErrConfiguration, "new pipeline", "splitter is required")
	}
	if extractors == nil {
		extractors = parser.NewRegistry()
	}
	if opts.ImageDirName == "" {
		opts.ImageDirName = models.DefaultImageDirName
	}
	return &Pipeline{store: store, summ: summ, splitter: splitter, extractors: extractors, opts: opts}, nil
}

// ProcessAll indexes every supported file directly inside inputDir. Only a
// missing input directory, an unusable image directory or a cancelled
// context end the run early; a failing file is recorded and skipped.
func (p *Pipeline) ProcessAll(ctx context.Context, inputDir string) (*Summary, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		err = models.WrapError(models.ErrNotFound, "process "+inputDir, err)
		log.Error().Err(err).Str("dir", inputDir).Msg("Input directory not found")
		return nil, err
	}

	imageDir := filepath.Join(inputDir, p.opts.ImageDirName)
	if err := helper.CreateFolder(imageDir); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", inputDir, err)
	}
	var entries []os.DirEntry
	for _, e := range dirEntries {
		if e.Name() == p.opts.ImageDirName {
			continue
		}
		entries = append(entries, e)
	}

	summary := &Summary{}
	if len(entries) == 0 {
		log.Warn().Str("dir", inputDir).Msg("No files found in input directory")
		return summary, nil
	}

	var progress Progress
	if p.opts.NewProgress != nil {
		progress = p.opts.NewProgress(len(entries))
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		file := models.ClassifyFile(filepath.Join(inputDir, entry.Name()))
		extractor, ok := p.extractors.For(file.Kind)
		if entry.IsDir() || !ok {
			log.Warn().Str("file", file.Name()).Msg("Unsupported file type, skipping")
			summary.Skipped++
			p.opts.Metrics.SkipFile(string(models.KindUnsupported))
			advance(progress)
			continue
		}

		log.Info().Str("file", file.Name()).Str("kind", string(file.Kind)).Msg("Processing file")
		p.opts.Metrics.StartFile()
		start := time.Now()

		texts, images, err := p.processFile(ctx, file, extractor, imageDir)
		p.opts.Metrics.FinishFile(string(file.Kind), time.Since(start), err)
		if err != nil {
			log.Error().Err(err).Str("file", file.Name()).Msg("Failed to process file")
			summary.Failed = append(summary.Failed, FileFailure{Name: file.Name(), Err: err})
		} else {
			summary.Processed++
			summary.TextDocuments += texts
			summary.ImageDocuments += images
			p.opts.Metrics.AddDocuments(string(models.DocTypeText), texts)
			p.opts.Metrics.AddDocuments(string(models.DocTypeImage), images)
			log.Info().
				Str("file", file.Name()).
				Int("text_documents", texts).
				Int("image_documents", images).
				Dur("took", time.Since(start)).
				Msg("Finished file")
		}
		advance(progress)
	}

	log.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failed)).
		Msg("Ingestion finished")
	return summary, nil
}

type textBatch struct {
	pageNo int
	chunks []string
}

type imageBatch struct {
	pageNo    int
	path      string
	summaries []string
}

// processFile extracts, chunks and summarizes the whole file before the
// first insertion, so an extraction error leaves nothing in the store.
func (p *Pipeline) processFile(ctx context.Context, file models.SourceFile, extractor parser.Extractor, imageDir string) (int, int, error) {
	units, err := extractor.Extract(ctx, file.Path)
	if err != nil {
		return 0, 0, err
	}

	var texts []textBatch
	var images []imageBatch
	for _, unit := range units {
		if chunks := nonBlank(p.splitter.Split(unit.Text)); len(chunks) > 0 {
			texts = append(texts, textBatch{pageNo: unit.PageNo, chunks: chunks})
		}

		for _, img := range unit.Images {
			if img.PageNo == 0 {
				img.PageNo = unit.PageNo
			}
			path, err := summarizer.SaveImage(imageDir, file.Name(), img)
			if err != nil {
				return 0, 0, err
			}
			summaries, err := p.summ.Summarize(ctx, img)
			if err != nil {
				log.Warn().Err(err).Str("file", file.Name()).Int("page", img.PageNo).Str("image", path).Msg("Skipping image, summarization failed")
				continue
			}
			summaries = nonBlank(summaries)
			if len(summaries) == 0 {
				log.Warn().Str("file", file.Name()).Str("image", path).Msg("Skipping image, empty summary")
				continue
			}
			images = append(images, imageBatch{pageNo: unit.PageNo, path: path, summaries: summaries})
		}
	}

	var textDocs, imageDocs int
	for _, b := range texts {
		if err := indexer.InsertText(ctx, p.store, b.chunks, file.Name(), b.pageNo); err != nil {
			return textDocs, imageDocs, err
		}
		textDocs += len(b.chunks)
	}
	for _, b := range images {
		if err := indexer.InsertImages(ctx, p.store, b.summaries, b.path, file.Name(), b.pageNo); err != nil {
			return textDocs, imageDocs, err
		}
		imageDocs += len(b.summaries)
	}
	return textDocs, imageDocs, nil
}

func nonBlank(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func advance(progress Progress) {
	if progress == nil {
		return
	}
	if err := progress.Add(1); err != nil {
		log.Debug().Err(err).Msg("Progress update failed")
	}
}
