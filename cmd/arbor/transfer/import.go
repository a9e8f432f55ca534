package transfercmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/transfer"
)

const importLongDesc string = `Import a JSON document, replacing the project's tree.

The document must have a "nodes" array. Every node is validated, and the tree
as a whole is checked for dangling links, cycles and multiple pins. A
document that fails any check is rejected and the stored tree is left
untouched. Pass --trust to skip the tree-level check and load the nodes as
they are.

After an import the active node is the first node of the document and
nothing is selected.

Examples:
  arbor import trip.json
  arbor import - < trip.json
  arbor import legacy.json --trust`

const importShortDesc string = "Import a tree from JSON"

func NewImportCmd() *cobra.Command {
	var trust bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: importShortDesc,
		Long:  importLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0], trust)
			if err != nil {
				return err
			}

			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			ws.Replace(doc.Nodes)
			if err := ws.Save(cmd.Context()); err != nil {
				return err
			}

			exported := ""
			if !doc.ExportedAt.IsZero() {
				exported = cliui.DimStyle.Render("(exported " + doc.ExportedAt.Format("2006-01-02 15:04") + ")")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Imported %s into %s %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(fmt.Sprintf("%d nodes", len(doc.Nodes))),
				cliui.NameStyle.Render(ws.Project),
				exported,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&trust, "trust", false, "Skip the tree-level integrity check")
	workspace.AddStorageFlags(cmd)

	return cmd
}

func readDocument(cmd *cobra.Command, path string, trust bool) (*transfer.Document, error) {
	opts := transfer.Options{Trust: trust}

	if path == "-" {
		return transfer.Read(cmd.InOrStdin(), opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return transfer.Read(f, opts)
}
