// Package openai calls the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"math"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/arbor/pkg/llm"
)

// Name is the provider name used in config and errors.
const Name = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Config is the configuration for the OpenAI caller.
type Config struct {
	APIKey string

	// BaseURL overrides the API root, e.g. for an OpenAI-compatible gateway.
	// It must include the /v1 suffix.
	BaseURL string
}

// NewCaller returns an llm.CallFunc backed by a go-openai client.
func NewCaller(c Config) llm.CallFunc {
	cfg := goopenai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	client := goopenai.NewClientWithConfig(cfg)

	return func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		model := opts.Model
		if model == "" {
			model = DefaultModel
		}

		req := goopenai.ChatCompletionRequest{
			Model:    model,
			Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
		}
		for _, m := range messages {
			req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
			})
		}
		if opts.Temperature != nil {
			req.Temperature = float32(*opts.Temperature)
			if req.Temperature == 0 {
				// Temperature is omitempty in go-openai.
				req.Temperature = math.SmallestNonzeroFloat32
			}
		}
		if opts.MaxTokens > 0 {
			req.MaxCompletionTokens = opts.MaxTokens
		}

		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", llm.ProviderError{Provider: Name, Err: err}
		}

		if len(resp.Choices) == 0 {
			return "", llm.ProviderError{Provider: Name, Err: errors.New("no choices returned")}
		}

		return resp.Choices[0].Message.Content, nil
	}
}
