// Package gemini calls Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/papercomputeco/arbor/pkg/llm"
)

const (
	// Name is the provider name used in config and errors.
	Name = "gemini"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"
)

// Config is the configuration for the Gemini caller.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// NewCaller creates a genai client and returns an llm.CallFunc over it.
func NewCaller(ctx context.Context, c Config) (llm.CallFunc, error) {
	if c.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		model := opts.Model
		if model == "" {
			model = DefaultModel
		}

		cfg := &genai.GenerateContentConfig{}
		if opts.Temperature != nil {
			cfg.Temperature = genai.Ptr(float32(*opts.Temperature))
		}
		if opts.MaxTokens > 0 {
			cfg.MaxOutputTokens = int32(opts.MaxTokens) //nolint:gosec // bounded by config
		}

		resp, err := client.Models.GenerateContent(ctx, model, toContents(messages), cfg)
		if err != nil {
			return "", llm.ProviderError{Provider: Name, Err: err}
		}

		text := resp.Text()
		if text == "" {
			return "", llm.ProviderError{Provider: Name, Err: errors.New("no text returned")}
		}

		return text, nil
	}, nil
}

// toContents maps roles onto Gemini's user/model pair.
func toContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
