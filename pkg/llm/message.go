// Package llm holds the provider-agnostic types exchanged between the context
// compiler and model providers.
package llm

// Message is a single {role, content} entry sent to a model.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // plain text payload
}

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// LastUserText returns the content of the last user message, or "" if none.
func LastUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
