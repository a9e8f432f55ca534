package navcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
)

const pinLongDesc string = `Toggle the pin on a node.

A pinned node is always included first in the compiled context, whatever
branch is active. At most one node is pinned: pinning a node unpins the
previous one. Running pin on the pinned node unpins it.

Examples:
  arbor pin 3f2a9c1e`

const pinShortDesc string = "Toggle the pin on a node"

func NewPinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin <id>",
		Short: pinShortDesc,
		Long:  pinLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, args[0], func(ws *workspace.Workspace, id string) error {
				pinned, err := ws.Session.TogglePin(id)
				if err != nil {
					return err
				}

				n, err := ws.Session.Node(id)
				if err != nil {
					return err
				}

				verb := "Unpinned"
				if pinned {
					verb = "Pinned"
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\n  %s %s\n", cliui.SuccessMark, verb)
				printNode(out, n)
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	workspace.AddStorageFlags(cmd)

	return cmd
}
