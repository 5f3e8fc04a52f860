package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/applyhawk/applyhawk/internal/answer"
	"github.com/applyhawk/applyhawk/internal/config"
	"github.com/applyhawk/applyhawk/internal/llm"
	"github.com/applyhawk/applyhawk/internal/store"
)

var (
	cfgPath string
	debug   bool
	noCache bool
)

var rootCmd = &cobra.Command{
	Use:   "applyhawk",
	Short: "Job application copilot",
	Long:  "ApplyHawk answers application form questions, scores job fit and drafts cover letters with a local or hosted LLM.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: APPLYHAWK_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "skip the answer cache for this run")
}

// loadConfig resolves the config path and parses it. A .env file next to the
// working directory is loaded first so api_key env references expand.
// Priority: explicit path arg > APPLYHAWK_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("APPLYHAWK_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildAnswerer wires the full invocation stack: backend, fallback, call
// logger, invoker, answer cache and resume. The returned cleanup closes the
// cache store and must run even on error paths that return a nil Answerer.
func buildAnswerer(cfg *config.Config, logger *slog.Logger) (*answer.Answerer, func(), error) {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}

	backend, err := llm.NewBackend(cfg.LLM, httpClient, logger)
	if err != nil {
		return nil, func() {}, fmt.Errorf("constructing backend: %w", err)
	}

	// A fallback only makes sense when the primary is hosted; a local
	// primary has nothing to fall back to.
	var fallback func() (llm.Backend, error)
	if !cfg.LLM.LocalOnly && cfg.LLM.Provider != "ollama" {
		fallback = llm.FallbackFactory(cfg.LLM, httpClient, logger)
	}

	if dir := filepath.Dir(cfg.LLM.CallsLog); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, func() {}, fmt.Errorf("creating call log directory: %w", err)
		}
	}
	callLog := llm.NewCallLogger(cfg.LLM.CallsLog, backend.Pricing(), logger)

	invoker := llm.NewInvoker(backend, fallback, callLog, cfg.LLM.MaxRetries, cfg.LLM.RetryDelay, logger)

	resume, err := config.LoadResume(cfg.ResumePath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("loading resume: %w", err)
	}

	var cache answer.AnswerCache
	cleanup := func() {}
	if noCache {
		logger.Info("answer cache disabled for this run")
		cache = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("opening answer store: %w", err)
		}
		cache = sqlStore
		cleanup = func() { sqlStore.Close() }
	}

	return answer.NewAnswerer(invoker, resume, cache, cfg.Suitability.MinScore, logger), cleanup, nil
}

// readTextArg reads a job description from path, or stdin when path is "-".
func readTextArg(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
