package llm

import "fmt"

// Defaults substituted for fields a backend does not report. Local models
// typically return bare text with no metadata, so every ParsedReply consumer
// can rely on these being present.
const (
	defaultModelName    = "phi3:latest"
	defaultFinishReason = "stop"
	defaultReplyID      = "local_model_response"
	parseErrorID        = "error_parsing_response"
)

// RawReply is the backend-specific response shape. Metadata and Usage carry
// whatever the backend reported, keyed by the canonical field names; either
// may be nil or partially populated.
type RawReply struct {
	Content  string
	ID       string
	Metadata map[string]any
	Usage    map[string]any
}

// ResponseMetadata describes the model run that produced a reply.
type ResponseMetadata struct {
	ModelName         string `json:"model_name"`
	SystemFingerprint string `json:"system_fingerprint"`
	FinishReason      string `json:"finish_reason"`
	Logprobs          any    `json:"logprobs"`
}

// UsageMetadata is the token accounting for one call.
type UsageMetadata struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ParsedReply is the canonical reply record. Every field is always populated;
// consumers never check for absence.
type ParsedReply struct {
	Content          string           `json:"content"`
	ResponseMetadata ResponseMetadata `json:"response_metadata"`
	ID               string           `json:"id"`
	UsageMetadata    UsageMetadata    `json:"usage_metadata"`
}

// Normalize converts a raw backend reply into a ParsedReply. It is total:
// any shape it does not recognize degrades to a default record whose content
// is the raw value's string form, never an error.
//
// Defaulting happens at two levels: a missing or empty field group (metadata,
// usage) is replaced wholesale, while a present-but-partial group still gets
// per-key defaults for whatever it lacks.
func Normalize(raw any) ParsedReply {
	reply, ok := raw.(*RawReply)
	if !ok || reply == nil {
		return ParsedReply{
			Content:          fmt.Sprint(raw),
			ResponseMetadata: defaultResponseMetadata(),
			ID:               parseErrorID,
			UsageMetadata:    UsageMetadata{},
		}
	}

	meta := defaultResponseMetadata()
	if len(reply.Metadata) > 0 {
		meta = ResponseMetadata{
			ModelName:         getString(reply.Metadata, "model_name", defaultModelName),
			SystemFingerprint: getString(reply.Metadata, "system_fingerprint", ""),
			FinishReason:      getString(reply.Metadata, "finish_reason", defaultFinishReason),
			Logprobs:          reply.Metadata["logprobs"],
		}
	}

	var usage UsageMetadata
	if len(reply.Usage) > 0 {
		usage = UsageMetadata{
			InputTokens:  getInt(reply.Usage, "input_tokens", 0),
			OutputTokens: getInt(reply.Usage, "output_tokens", 0),
			TotalTokens:  getInt(reply.Usage, "total_tokens", 0),
		}
	}

	id := reply.ID
	if id == "" {
		id = defaultReplyID
	}

	return ParsedReply{
		Content:          reply.Content,
		ResponseMetadata: meta,
		ID:               id,
		UsageMetadata:    usage,
	}
}

func defaultResponseMetadata() ResponseMetadata {
	return ResponseMetadata{
		ModelName:         defaultModelName,
		SystemFingerprint: "",
		FinishReason:      defaultFinishReason,
		Logprobs:          nil,
	}
}

// getString reads a string value from a loosely-typed metadata map, falling
// back when the key is absent or holds a non-string.
func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

// getInt reads an int from a loosely-typed map. Backends that round-trip
// through JSON report numbers as float64, so both are accepted.
func getInt(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
