// Package provider builds the llm.CallFunc a session talks to from config.
//
// Resolution order for API keys:
//  1. Explicit APIKey in config
//  2. credentials.Manager (from arbor auth)
//  3. Environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY)
//  4. Fall back to the offline stand-in
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/arbor/pkg/credentials"
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/arbor/pkg/llm/provider/fallback"
	"github.com/papercomputeco/arbor/pkg/llm/provider/gemini"
	"github.com/papercomputeco/arbor/pkg/llm/provider/offline"
	"github.com/papercomputeco/arbor/pkg/llm/provider/ollama"
	"github.com/papercomputeco/arbor/pkg/llm/provider/openai"
)

// Offline is the provider name of the deterministic stand-in.
const Offline = "offline"

// Config holds configuration for creating a caller.
type Config struct {
	// Provider is one of openai, anthropic, gemini, ollama or offline.
	Provider string

	// Model is the provider model name. Empty uses the provider default.
	Model string

	// APIKey is an explicit API key (highest priority).
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// CredMgr resolves keys stored with arbor auth.
	CredMgr *credentials.Manager

	// DisableFallback returns provider errors instead of offline replies.
	DisableFallback bool

	Logger *slog.Logger
}

// Caller is a resolved provider.
type Caller struct {
	// Provider is the provider actually in use after key resolution.
	Provider string

	// Model is the model sent with every request.
	Model string

	Call llm.CallFunc
}

// Names returns the known provider names.
func Names() []string {
	return []string{anthropic.Name, gemini.Name, Offline, ollama.Name, openai.Name}
}

// NewCaller resolves a provider from config. A key-based provider with no
// key available becomes the offline stand-in, with a warning.
func NewCaller(ctx context.Context, c Config) (*Caller, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := strings.ToLower(c.Provider)
	if name == "" {
		name = Offline
	}

	apiKey := c.APIKey
	if needsKey(name) {
		if apiKey == "" {
			apiKey = resolveAPIKeyFromCreds(c.CredMgr, name)
		}
		if apiKey == "" {
			apiKey = os.Getenv(credentials.EnvVarForProvider(name))
		}
		if apiKey == "" {
			logger.Warn("no API key found, using offline replies", "provider", name)
			name = Offline
		}
	}

	var (
		call  llm.CallFunc
		model = c.Model
		err   error
	)

	switch name {
	case openai.Name:
		call = openai.NewCaller(openai.Config{APIKey: apiKey, BaseURL: c.BaseURL})
		model = orDefault(model, openai.DefaultModel)

	case anthropic.Name:
		call = anthropic.NewCaller(anthropic.Config{APIKey: apiKey, BaseURL: c.BaseURL})
		model = orDefault(model, anthropic.DefaultModel)

	case gemini.Name:
		call, err = gemini.NewCaller(ctx, gemini.Config{APIKey: apiKey, BaseURL: c.BaseURL})
		if err != nil {
			return nil, err
		}
		model = orDefault(model, gemini.DefaultModel)

	case ollama.Name:
		call = ollama.NewCaller(ollama.Config{BaseURL: c.BaseURL})
		model = orDefault(model, ollama.DefaultModel)

	case Offline:
		return &Caller{Provider: Offline, Model: offline.Model, Call: offline.Call}, nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}

	if !c.DisableFallback {
		call = fallback.NewCaller(fallback.Config{
			Name:    name,
			Primary: call,
			Logger:  logger,
		})
	}

	return &Caller{Provider: name, Model: model, Call: call}, nil
}

func needsKey(provider string) bool {
	return credentials.IsSupportedProvider(provider)
}

func resolveAPIKeyFromCreds(mgr *credentials.Manager, provider string) string {
	if mgr == nil {
		return ""
	}
	key, err := mgr.GetKey(provider)
	if err != nil {
		return ""
	}
	return key
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
