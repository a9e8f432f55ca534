package navcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/memory"
)

const checkoutLongDesc string = `Move the active cursor to a node.

The next prompt sent with arbor chat attaches under the active node. Checking
out a root switches to hierarchical memory (the model sees every branch under
that root); checking out any other node uses isolated memory (the model sees
only the path from the root).

Without an argument, prints the current active node.

Examples:
  arbor checkout 3f2a9c1e     Check out a node by id prefix
  arbor checkout              Show the active node`

const checkoutShortDesc string = "Move the active cursor"

func NewCheckoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout [id]",
		Short: checkoutShortDesc,
		Long:  checkoutLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return showActive(cmd)
			}

			return mutate(cmd, args[0], func(ws *workspace.Workspace, id string) error {
				if err := ws.Session.SetActive(id); err != nil {
					return err
				}

				n, err := ws.Session.Node(id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\n  %s Checked out %s\n",
					cliui.SuccessMark,
					cliui.DimStyle.Render(fmt.Sprintf("(%s memory)", memory.Classify(n))),
				)
				printNode(out, n)
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	workspace.AddStorageFlags(cmd)

	return cmd
}

func showActive(cmd *cobra.Command) error {
	ws, err := workspace.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	out := cmd.OutOrStdout()
	active := ws.Session.ActiveID()
	if active == "" {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No active node. The tree is empty."))
		return nil
	}

	n, err := ws.Session.Node(active)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s %s\n",
		cliui.KeyStyle.Render("Active:"),
		cliui.DimStyle.Render(fmt.Sprintf("(%s memory)", memory.Classify(n))),
	)
	printNode(out, n)
	fmt.Fprintln(out)
	return nil
}
