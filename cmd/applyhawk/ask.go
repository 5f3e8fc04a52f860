package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/applyhawk/applyhawk/internal/model"
)

var (
	askDescPath   string
	askCompany    string
	askTitle      string
	askOptions    []string
	askNumeric    bool
	askDefaultVal int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer an application form question",
	Long: "Answers a single form question from the configured resume. " +
		"With --options the answer is forced to one of the given choices; " +
		"with --numeric it is forced to a number.",
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDescPath, "description", "d", "", "path to the job description file (\"-\" for stdin)")
	askCmd.Flags().StringVar(&askCompany, "company", "", "company name, used for cover letter questions")
	askCmd.Flags().StringVar(&askTitle, "title", "", "job title")
	askCmd.Flags().StringSliceVar(&askOptions, "options", nil, "allowed answers; the closest model answer is chosen")
	askCmd.Flags().BoolVar(&askNumeric, "numeric", false, "answer must be a number")
	askCmd.Flags().IntVar(&askDefaultVal, "default", 0, "fallback value for --numeric when no number is produced")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	question := strings.Join(args, " ")

	job := model.Job{
		Title:   askTitle,
		Company: askCompany,
	}
	if askDescPath != "" {
		desc, err := readTextArg(askDescPath)
		if err != nil {
			logger.Error("failed to read job description", "error", err)
			os.Exit(1)
		}
		job.Description = desc
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reply string
	switch {
	case askNumeric:
		reply, err = answerer.AnswerNumeric(ctx, question, askDefaultVal)
	case len(askOptions) > 0:
		reply, err = answerer.AnswerFromOptions(ctx, question, askOptions)
	default:
		reply, err = answerer.AnswerQuestion(ctx, question, job)
	}
	if err != nil {
		logger.Error("failed to answer question", "error", err)
		os.Exit(1)
	}

	fmt.Println(reply)
	return nil
}
