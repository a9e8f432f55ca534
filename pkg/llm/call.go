package llm

import "context"

// Options are the generation parameters passed to every provider.
type Options struct {
	// Model name (e.g., "gpt-4o-mini", "claude-haiku-4-5-20251001", "llama3.2")
	Model string `json:"model"`

	// Temperature is the sampling temperature. Nil means provider default;
	// a set zero is sent as zero.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens caps the reply length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CallFunc sends a compiled message list to a model and returns the reply
// text. Every provider is interchangeable behind this one contract.
type CallFunc func(ctx context.Context, messages []Message, opts Options) (string, error)

// Temperature returns a pointer to t for Options.Temperature.
func Temperature(t float64) *float64 {
	return &t
}
