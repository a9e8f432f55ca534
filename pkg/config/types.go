package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent arbor configuration stored as config.toml
// in the .arbor/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Storage  StorageConfig  `toml:"storage"`
	Provider ProviderConfig `toml:"provider"`
	Context  ContextConfig  `toml:"context"`
	API      APIConfig      `toml:"api"`
	Events   EventsConfig   `toml:"events"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	// Driver is one of "sqlite", "postgres" or "inmemory".
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// ProviderConfig holds model provider settings.
type ProviderConfig struct {
	Name        string  `toml:"name,omitempty"`
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
	MaxTokens   uint    `toml:"max_tokens,omitempty"`

	// Timeout bounds a single model call, e.g. "2m".
	Timeout string `toml:"timeout,omitempty"`

	// DisableFallback surfaces provider failures instead of substituting
	// the offline reply.
	DisableFallback bool `toml:"disable_fallback,omitempty"`
}

// ContextConfig holds context compiler settings.
type ContextConfig struct {
	// TokenBudget is the advisory limit the context validator warns about.
	TokenBudget uint `toml:"token_budget,omitempty"`
}

// APIConfig holds inspection API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds mutation event publishing settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error {
			switch v {
			case StorageSQLite, StoragePostgres, StorageInMemory:
				c.Storage.Driver = v
				return nil
			default:
				return fmt.Errorf("invalid value for storage.driver: %q (available: %s, %s, %s)",
					v, StorageSQLite, StoragePostgres, StorageInMemory)
			}
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"provider.name": {
		get: func(c *Config) string { return c.Provider.Name },
		set: func(c *Config, v string) error { c.Provider.Name = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"provider.base_url": {
		get: func(c *Config) string { return c.Provider.BaseURL },
		set: func(c *Config, v string) error { c.Provider.BaseURL = v; return nil },
	},
	"provider.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Provider.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for provider.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for provider.temperature: %v is outside [0, 2]", f)
			}
			c.Provider.Temperature = f
			return nil
		},
	},
	"provider.max_tokens": uintKey("provider.max_tokens", func(c *Config) *uint { return &c.Provider.MaxTokens }),
	"provider.timeout": {
		get: func(c *Config) string { return c.Provider.Timeout },
		set: func(c *Config, v string) error { c.Provider.Timeout = v; return nil },
	},
	"provider.disable_fallback": boolKey("provider.disable_fallback", func(c *Config) *bool { return &c.Provider.DisableFallback }),
	"context.token_budget":      uintKey("context.token_budget", func(c *Config) *uint { return &c.Context.TokenBudget }),
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"events.enabled": boolKey("events.enabled", func(c *Config) *bool { return &c.Events.Enabled }),
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
