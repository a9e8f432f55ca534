// Package ollama calls a local Ollama server's /api/chat endpoint.
package ollama

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
	Name = "ollama"

	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the standard local Ollama address.
	DefaultBaseURL = "http://localhost:11434"
)

// Config is the configuration for the Ollama caller.
type Config struct {
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewCaller returns an llm.CallFunc for a non-streaming chat request.
func NewCaller(c Config) llm.CallFunc {
	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		text, err := call(ctx, client, baseURL, messages, opts)
		if err != nil {
			return "", llm.ProviderError{Provider: Name, Err: err}
		}
		return text, nil
	}
}

func call(ctx context.Context, client *http.Client, baseURL string, messages []llm.Message, opts llm.Options) (string, error) {
	reqBody := chatRequest{
		Model:    opts.Model,
		Messages: make([]chatMessage, 0, len(messages)),
		Stream:   false,
	}
	if reqBody.Model == "" {
		reqBody.Model = DefaultModel
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	if opts.Temperature != nil || opts.MaxTokens > 0 {
		options := &chatOptions{Temperature: opts.Temperature}
		if opts.MaxTokens > 0 {
			n := opts.MaxTokens
			options.NumPredict = &n
		}
		reqBody.Options = options
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if result.Error != "" {
		return "", errors.New(result.Error)
	}

	return result.Message.Content, nil
}
