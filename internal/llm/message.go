package llm

import "strings"

// ChatMessage is one role-tagged turn of a conversation. An ordered slice of
// these forms the prompt for a single call; messages are never mutated after
// being handed to the invoker.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// UserMessage returns a user-role message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// FlattenMessages joins message contents with a blank line for backends whose
// API takes a single text prompt instead of a message list.
func FlattenMessages(messages []ChatMessage) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
