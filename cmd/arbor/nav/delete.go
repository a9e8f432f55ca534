package navcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
)

const deleteLongDesc string = `Delete a node and its whole subtree.

If the active node was removed, the active cursor moves to the first
remaining node. A removed selection is cleared.

Examples:
  arbor delete 3f2a9c1e`

const deleteShortDesc string = "Delete a node and its subtree"

func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, args[0], func(ws *workspace.Workspace, id string) error {
				removed, err := ws.Session.DeleteNode(id)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted %s %s\n\n",
					cliui.SuccessMark,
					cliui.IDStyle.Render(cliui.ShortID(id)),
					cliui.DimStyle.Render(fmt.Sprintf("(%d nodes)", len(removed))),
				)
				return nil
			})
		},
	}

	workspace.AddStorageFlags(cmd)

	return cmd
}
