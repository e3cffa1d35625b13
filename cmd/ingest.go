package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"multimodal-rag/internal/chromemdb"
	"multimodal-rag/internal/chunker"
	"multimodal-rag/internal/metrics"
	"multimodal-rag/internal/parser"
	"multimodal-rag/internal/pipeline"
)

var (
	ingestInputDir string
	ingestReset    bool
	ingestExport   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract, summarize and index every supported file in the input folder",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestInputDir, "input", "i", "", "input folder (defaults to settings.input_folder)")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "empty the collection before ingesting")
	ingestCmd.Flags().BoolVar(&ingestExport, "export", false, "export the chromem collection after ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	splitter, err := chunker.New(cfg.TextSplitter.ChunkSize, cfg.TextSplitter.ChunkOverlap)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if ingestReset {
		log.Info().Msg("Resetting vector store")
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}

	cache, closeCache := newCache(cfg)
	defer closeCache()
	summ, err := newSummarizer(cfg, cache)
	if err != nil {
		return err
	}

	m := metrics.NewIngestMetrics()
	p, err := pipeline.New(store, summ, splitter, parser.NewRegistry(), pipeline.Options{
		ImageDirName: cfg.Settings.ImageDirectoryName,
		Metrics:      m,
		NewProgress:  newProgressBar,
	})
	if err != nil {
		return err
	}

	inputDir := cfg.Settings.InputFolder
	if ingestInputDir != "" {
		inputDir = ingestInputDir
	}
	summary, err := p.ProcessAll(ctx, inputDir)
	if err != nil {
		return err
	}

	for _, f := range summary.Failed {
		log.Error().Err(f.Err).Str("file", f.Name).Msg("Not indexed")
	}
	log.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failed)).
		Int("text_documents", summary.TextDocuments).
		Int("image_documents", summary.ImageDocuments).
		Msg("Ingestion summary")

	if err := m.WriteTextfile(cfg.Settings.MetricsTextfile); err != nil {
		log.Warn().Err(err).Msg("Could not write metrics")
	}

	if manager, ok := store.(*chromemdb.VectorDBManager); ok && (ingestExport || cfg.VectorDB.InMemory) {
		if err := manager.Export(); err != nil {
			return err
		}
		log.Info().Str("file", manager.ExportPath()).Msg("Exported collection")
	}
	return nil
}
