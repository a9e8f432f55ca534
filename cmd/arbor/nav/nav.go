// Package navcmder provides the cursor and structure commands that act on a
// single node: checkout, select, pin and delete.
package navcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/utils"
)

// mutate opens the workspace, resolves ref, applies fn and saves.
func mutate(cmd *cobra.Command, ref string, fn func(ws *workspace.Workspace, id string) error) error {
	ws, err := workspace.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	id, err := ws.Resolve(ref)
	if err != nil {
		return err
	}

	if err := fn(ws, id); err != nil {
		return err
	}

	return ws.Save(cmd.Context())
}

// printNode writes a one-line description of n.
func printNode(w io.Writer, n *tree.Node) {
	fmt.Fprintf(w, "  %s %s %s\n",
		cliui.IDStyle.Render(cliui.ShortID(n.ID)),
		cliui.RoleLabel(n.Role),
		utils.Truncate(n.Content, 60),
	)
}
