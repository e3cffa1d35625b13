package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"multimodal-rag/internal/config"
	"multimodal-rag/internal/helper"
)

const defaultConfigFilePath = "./configs/config.yaml"

var (
	configFilePath string
	cfg            *config.Config
	logCloser      io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "multimodal-rag",
	Short: "Index PDF, text and Word documents with image summaries and ask questions about them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configFilePath)
		if err != nil {
			return err
		}
		logCloser, err = helper.SetupLogger(cfg.Settings.LogLevel, cfg.Settings.LogFile)
		if err != nil {
			return err
		}
		log.Debug().Str("config", configFilePath).Msg("Loaded config")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath, "config file path")
	rootCmd.AddCommand(ingestCmd, queryCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
