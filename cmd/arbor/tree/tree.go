// Package treecmder provides the tree command for printing a project's
// conversation forest.
package treecmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
)

const treeLongDesc string = `Print the conversation forest of a project.

Each node shows its id prefix, role and a content preview. The active node
(where the next prompt attaches) is marked with ●, the selected node with ◆
and the pinned node with a pin.

Structural problems found in the stored tree are listed after it.

Examples:
  arbor tree
  arbor tree --project research`

const treeShortDesc string = "Print the conversation tree"

func NewTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: treeShortDesc,
		Long:  treeLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n  %s %s\n\n",
				cliui.KeyStyle.Render("Project:"),
				cliui.NameStyle.Render(ws.Project),
			)
			ws.RenderTree(out)

			issues := ws.Session.Integrity()
			if len(issues) > 0 {
				fmt.Fprintf(out, "\n  %s %d integrity issue(s):\n", cliui.WarnMark, len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "    %s\n", cliui.DimStyle.Render(issue.String()))
				}
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	workspace.AddStorageFlags(cmd)

	return cmd
}
