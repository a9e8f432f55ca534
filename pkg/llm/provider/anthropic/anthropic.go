// Package anthropic calls the Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/arbor/pkg/llm"
)

const (
	// Name is the provider name used in config and errors.
	Name = "anthropic"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-haiku-4-5-20251001"

	defaultBaseURL   = "https://api.anthropic.com"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Config is the configuration for the Anthropic caller.
type Config struct {
	APIKey  string
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewCaller returns an llm.CallFunc for the messages API.
func NewCaller(c Config) llm.CallFunc {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		text, err := call(ctx, client, baseURL, c.APIKey, messages, opts)
		if err != nil {
			return "", llm.ProviderError{Provider: Name, Err: err}
		}
		return text, nil
	}
}

func call(ctx context.Context, client *http.Client, baseURL, apiKey string, messages []llm.Message, opts llm.Options) (string, error) {
	reqBody := request{
		Model:     opts.Model,
		MaxTokens: opts.MaxTokens,
		Messages:  mergeTurns(messages),
	}
	if reqBody.Model == "" {
		reqBody.Model = DefaultModel
	}
	if reqBody.MaxTokens <= 0 {
		reqBody.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature != nil {
		reqBody.Temperature = opts.Temperature
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if result.Error != nil {
		return "", errors.New(result.Error.Message)
	}

	var out strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("no text content returned")
	}

	return out.String(), nil
}

// mergeTurns joins consecutive messages with the same role. Compiled context
// can hold adjacent user turns (sibling branches, pinned notes), and the
// messages API expects roles to alternate.
func mergeTurns(messages []llm.Message) []message {
	out := make([]message, 0, len(messages))
	for _, m := range messages {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, message{Role: m.Role, Content: m.Content})
	}
	return out
}
