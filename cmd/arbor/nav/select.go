package navcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
)

const selectLongDesc string = `Move the selected cursor to a node.

The selected node is the one under inspection. It does not change where new
prompts attach.

Examples:
  arbor select 3f2a9c1e     Select a node by id prefix
  arbor select --clear      Clear the selection`

const selectShortDesc string = "Move the selected cursor"

func NewSelectCmd() *cobra.Command {
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "select [id]",
		Short: selectShortDesc,
		Long:  selectLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if clearFlag {
				ws, err := workspace.FromCommand(cmd)
				if err != nil {
					return err
				}
				defer func() { _ = ws.Close() }()

				ws.Session.ClearSelected()
				if err := ws.Save(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n  %s Selection cleared\n\n", cliui.SuccessMark)
				return nil
			}

			if len(args) == 0 {
				return errors.New("node id required (or --clear)")
			}

			return mutate(cmd, args[0], func(ws *workspace.Workspace, id string) error {
				if err := ws.Session.SetSelected(id); err != nil {
					return err
				}

				n, err := ws.Session.Node(id)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "\n  %s Selected\n", cliui.SuccessMark)
				printNode(out, n)
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFlag, "clear", false, "Clear the selection")
	workspace.AddStorageFlags(cmd)

	return cmd
}
