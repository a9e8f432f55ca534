// Package configcmder provides the config command for managing persistent
// arbor configuration stored in the .arbor/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent arbor configuration.

Configuration is stored as config.toml in the .arbor/ directory and provides
default values for command flags. CLI flags and ARBOR_* environment variables
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  provider.name, provider.model, provider.base_url, provider.temperature,
  provider.max_tokens, provider.timeout, provider.disable_fallback,
  context.token_budget, api.listen,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  arbor config set <key> <value>    Set a configuration value
  arbor config get <key>            Get a configuration value
  arbor config list                 List all configuration values

Examples:
  arbor config set provider.name anthropic
  arbor config set context.token_budget 16000
  arbor config get provider.model
  arbor config list`

const configShortDesc string = "Manage persistent arbor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
