package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/applyhawk/applyhawk/internal/config"
)

// Backend is a concrete LLM client behind a uniform invoke contract.
type Backend interface {
	// Name identifies the backend in logs ("openai", "ollama").
	Name() string
	// Pricing returns the backend's per-token cost for call logging.
	Pricing() Pricing
	// Invoke sends a structured message list and returns the raw reply.
	Invoke(ctx context.Context, messages []ChatMessage) (*RawReply, error)
}

// FlatPromptBackend is implemented by backends whose API accepts a single
// text prompt rather than a message list. The invoker flattens the messages
// before calling InvokePrompt; the call log still records the structured form.
type FlatPromptBackend interface {
	InvokePrompt(ctx context.Context, prompt string) (*RawReply, error)
}

// NewBackend selects and constructs the backend for cfg. Selection is a pure
// function of the configuration, with one documented override: when
// cfg.LocalOnly is set (the default deployment) the local Ollama backend is
// always constructed, whatever provider the configuration names. The
// configured provider is still logged so the override is visible.
//
// Construction failure is fatal here, never deferred to the first invocation.
func NewBackend(cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) (Backend, error) {
	if cfg.LocalOnly {
		logger.Info("local-only mode: using ollama backend",
			"configured_provider", cfg.Provider,
			"model", cfg.LocalModel,
		)
		return NewOllamaBackend(cfg.LocalURL, cfg.LocalModel, httpClient, logger)
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIBackend(cfg.APIURL, cfg.APIKey, cfg.Model, httpClient, logger), nil
	case "ollama":
		return NewOllamaBackend(cfg.APIURL, cfg.Model, httpClient, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// FallbackFactory returns a lazy constructor for the local backend, used by
// the invoker when the primary backend's credentials are rejected. The
// constructor runs (and may fail) only if the fallback is actually needed.
func FallbackFactory(cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) func() (Backend, error) {
	return func() (Backend, error) {
		logger.Info("constructing fallback backend", "model", cfg.LocalModel)
		return NewOllamaBackend(cfg.LocalURL, cfg.LocalModel, httpClient, logger)
	}
}
