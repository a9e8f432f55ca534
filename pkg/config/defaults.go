package config

// Storage driver names.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageInMemory = "inmemory"
)

const (
	defaultStorageDriver = StorageSQLite
	defaultSQLiteFile    = "arbor.db"

	defaultProvider    = "openai"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
	defaultTimeout     = "2m"

	defaultTokenBudget = 8000

	defaultAPIListen = ":8082"

	defaultEventsTopic = "arbor.mutations"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Provider: ProviderConfig{
			Name:        defaultProvider,
			Model:       defaultModel,
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
			Timeout:     defaultTimeout,
		},
		Context: ContextConfig{
			TokenBudget: defaultTokenBudget,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
