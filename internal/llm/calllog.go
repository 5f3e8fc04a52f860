package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"
)

// Pricing is the per-token cost of a backend. Hosted APIs carry real prices;
// local backends are zero-priced so their log entries cost 0.0.
type Pricing struct {
	PromptPerToken     float64
	CompletionPerToken float64
}

// LogEntry is one line of the call log. Written once per completed call,
// never mutated, never read back by this package.
type LogEntry struct {
	Model        string  `json:"model"`
	Time         string  `json:"time"`
	Prompts      any     `json:"prompts"`
	Replies      string  `json:"replies"`
	TotalTokens  int     `json:"total_tokens"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// CallLogger appends a structured JSON record per LLM call to a log file.
// The file is opened in append mode and closed on every call; prior entries
// are never touched.
type CallLogger struct {
	path    string
	pricing Pricing
	logger  *slog.Logger
}

// NewCallLogger creates a call logger writing to path. The directory must
// already exist; the file is created on first write.
func NewCallLogger(path string, pricing Pricing, logger *slog.Logger) *CallLogger {
	return &CallLogger{
		path:    path,
		pricing: pricing,
		logger:  logger,
	}
}

// Log appends one entry for a completed call. Prompt-shape conversion never
// fails; only the file write can return an error, and that is surfaced to
// the caller as fatal.
func (l *CallLogger) Log(prompts any, reply ParsedReply) error {
	usage := reply.UsageMetadata
	entry := LogEntry{
		Model:        reply.ResponseMetadata.ModelName,
		Time:         time.Now().Format("2006-01-02 15:04:05"),
		Prompts:      normalizePrompts(prompts),
		Replies:      reply.Content,
		TotalTokens:  usage.TotalTokens,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalCost: float64(usage.InputTokens)*l.pricing.PromptPerToken +
			float64(usage.OutputTokens)*l.pricing.CompletionPerToken,
	}

	data, err := json.MarshalIndent(entry, "", "    ")
	if err != nil {
		// Only reachable through an unmarshalable Prompts value, which
		// normalizePrompts already rules out.
		l.logger.Warn("could not marshal call log entry", "error", err)
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening call log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing call log entry: %w", err)
	}
	return nil
}

// normalizePrompts converts the caller's prompt value into a loggable shape:
// strings pass through, message lists and mappings become a map keyed
// prompt_1, prompt_2, ... from the content fields, and anything else degrades
// to its string form. It never fails.
func normalizePrompts(prompts any) any {
	switch p := prompts.(type) {
	case string:
		return p
	case []ChatMessage:
		out := make(map[string]string, len(p))
		for i, m := range p {
			out[fmt.Sprintf("prompt_%d", i+1)] = m.Content
		}
		return out
	case []map[string]string:
		out := make(map[string]string, len(p))
		for i, m := range p {
			out[fmt.Sprintf("prompt_%d", i+1)] = m["content"]
		}
		return out
	case map[string]string:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]string, len(p))
		for i, k := range keys {
			out[fmt.Sprintf("prompt_%d", i+1)] = p[k]
		}
		return out
	default:
		return fmt.Sprint(prompts)
	}
}
