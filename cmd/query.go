package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"multimodal-rag/internal/helper"
	"multimodal-rag/internal/llmservice"
	"multimodal-rag/internal/models"
	"multimodal-rag/internal/rag"
	"multimodal-rag/internal/report"
)

var queryShowDocs bool

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question, or start an interactive loop when none is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryShowDocs, "show-docs", false, "print the retrieved documents with their scores")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	r := cfg.VectorDB.Retriever
	retriever, err := store.AsRetriever(r.SearchAlgorithm, r.TopK)
	if err != nil {
		return err
	}

	l := cfg.LLM
	llm, err := llmservice.NewModel(l.Provider, l.BaseURL, l.Key, l.AnswerModel)
	if err != nil {
		return err
	}
	answerer := rag.NewRAG(retriever, llm, rag.Options{
		MaxImages:    r.MaxImages,
		InlineBinary: l.Provider == llmservice.ProviderOllama,
	})
	excelPath := filepath.Join(cfg.Settings.OutputFolder, cfg.Settings.OutputExcelFilename)

	ask := func(question string) {
		response, err := answerer.Answer(ctx, question)
		if err != nil {
			log.Error().Err(err).Str("question", question).Msg("Error answering question")
			return
		}
		printResponse(response)
		if queryShowDocs {
			helper.PrettyPrint(response.Documents)
		}
		if err := report.AppendQA(excelPath, *response); err != nil {
			log.Error().Err(err).Msg("Error logging data to Excel")
		}
	}

	if len(args) == 1 {
		ask(args[0])
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Question (type 'exit' to quit): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(question, "exit") {
			return nil
		}
		if question == "" {
			continue
		}
		ask(question)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func printResponse(response *models.PromptResponse) {
	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.References)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}
