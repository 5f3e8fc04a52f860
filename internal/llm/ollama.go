package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/applyhawk/applyhawk/internal/model"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaBackend calls a local Ollama server's /api/generate endpoint. The
// generate API takes a single text prompt, so the backend also implements
// FlatPromptBackend. Local inference is free; pricing is zero.
type OllamaBackend struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaBackend creates a backend for the Ollama server at baseURL and
// probes it once. An unreachable server fails construction immediately
// rather than surfacing on the first invocation.
func NewOllamaBackend(baseURL, model string, httpClient *http.Client, logger *slog.Logger) (*OllamaBackend, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	b := &OllamaBackend{
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
	if err := b.ping(); err != nil {
		return nil, fmt.Errorf("ollama server at %s unreachable: %w", baseURL, err)
	}
	return b, nil
}

func (b *OllamaBackend) ping() error {
	resp, err := b.httpClient.Get(b.baseURL + "/api/tags")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &model.BackendError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

func (b *OllamaBackend) Pricing() Pricing { return Pricing{} }

// generateRequest mirrors the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse mirrors the non-streaming Ollama response.
type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Invoke flattens messages into a single prompt; the generate API has no
// notion of a conversation.
func (b *OllamaBackend) Invoke(ctx context.Context, messages []ChatMessage) (*RawReply, error) {
	return b.InvokePrompt(ctx, FlattenMessages(messages))
}

// InvokePrompt sends a single text prompt and returns a raw reply. Metadata
// is limited to what the generate API reports; token counts are included
// only when the server supplies them, leaving the normalizer to default the
// rest.
func (b *OllamaBackend) InvokePrompt(ctx context.Context, prompt string) (*RawReply, error) {
	body, err := json.Marshal(generateRequest{
		Model:  b.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := b.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &model.BackendError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", string(respBytes)),
		}
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		return nil, fmt.Errorf("parse generate response: %w", err)
	}

	finish := genResp.DoneReason
	if finish == "" {
		finish = "stop"
	}

	reply := &RawReply{
		Content: genResp.Response,
		Metadata: map[string]any{
			"model_name":    genResp.Model,
			"finish_reason": finish,
		},
	}
	if genResp.PromptEvalCount > 0 || genResp.EvalCount > 0 {
		reply.Usage = map[string]any{
			"input_tokens":  genResp.PromptEvalCount,
			"output_tokens": genResp.EvalCount,
			"total_tokens":  genResp.PromptEvalCount + genResp.EvalCount,
		}
	}
	return reply, nil
}
