package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a job description",
	Long:  "Condenses a job description file into a short summary. Pass \"-\" to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
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

	summary, err := answerer.Summarize(ctx, description)
	if err != nil {
		logger.Error("failed to summarize", "error", err)
		os.Exit(1)
	}

	fmt.Println(summary)
	return nil
}
