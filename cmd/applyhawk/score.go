package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score job fit against the resume",
	Long: "Rates how well the configured resume matches a job description, 1 to 10. " +
		"Exits nonzero when the score is below the configured threshold.",
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	answerer, cleanup, err := buildAnswerer(cfg, logger)
	if err != nil {
		logger.Error("failed to build answerer", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	description, err := readTextArg(args[0])
	if err != nil {
		logger.Error("failed to read job description", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := answerer.SuitabilityScore(ctx, description)
	if err != nil {
		logger.Error("failed to score job", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Score: %d/10 (threshold %d)\n", result.Score, cfg.Suitability.MinScore)
	if result.Reasoning != "" {
		fmt.Printf("Reasoning: %s\n", result.Reasoning)
	}

	if !result.Suitable {
		fmt.Println("Verdict: skip")
		cleanup()
		os.Exit(2)
	}
	fmt.Println("Verdict: apply")
	return nil
}
