// Package contextcmder provides the context command, which shows exactly
// what a model would receive for a prompt typed at a node.
package contextcmder

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/config"
)

const contextLongDesc string = `Show the compiled context for a node.

Prints the ordered message list a model would receive if the prompt were
typed at the node, followed by the context summary and any budget warnings.
Without an id the active node is used.

Examples:
  arbor context
  arbor context 3f2a9c1e --prompt "what did we decide?"
  arbor context --json`

const contextShortDesc string = "Show the compiled context for a node"

type contextCommander struct {
	prompt      string
	tokenBudget uint
	json        bool
}

func NewContextCmd() *cobra.Command {
	cmder := &contextCommander{}

	cmd := &cobra.Command{
		Use:   "context [id]",
		Short: contextShortDesc,
		Long:  contextLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := workspace.FlagsFrom(cmd)
			keys := append([]string{config.FlagTokenBudget}, workspace.StorageFlagKeys...)
			cfg, cfger, err := workspace.LoadConfig(cmd, flags, keys...)
			if err != nil {
				return err
			}

			ws, err := workspace.Open(cmd.Context(), workspace.Options{
				Flags:    flags,
				Config:   cfg,
				Configer: cfger,
			})
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			var id string
			if len(args) > 0 {
				id, err = ws.Resolve(args[0])
				if err != nil {
					return err
				}
			}

			view, err := ws.Inspect(id, cmder.prompt)
			if err != nil {
				return err
			}

			if cmder.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			cliui.RenderContext(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().StringVar(&cmder.prompt, "prompt", "", "Prompt to append as the final user message")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the context as JSON")
	config.AddUintFlag(cmd, config.Flags, config.FlagTokenBudget, &cmder.tokenBudget)
	workspace.AddStorageFlags(cmd)

	return cmd
}
