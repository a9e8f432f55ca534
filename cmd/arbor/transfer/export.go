package transfercmder

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/transfer"
)

const exportLongDesc string = `Export a project's tree as JSON.

The document has the form {"nodes": [...], "exportedAt": "...", "version": "1.0"}
and can be loaded back with arbor import. Without --out the document is
written to stdout.

Examples:
  arbor export
  arbor export --out trip.json
  arbor export --project research --out research.json`

const exportShortDesc string = "Export the tree as JSON"

func NewExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			doc := transfer.Export(ws.Session.Snapshot().Nodes, time.Now())

			if outPath == "" {
				return transfer.Write(cmd.OutOrStdout(), doc)
			}

			if err := writeFile(outPath, doc); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Exported %s %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(fmt.Sprintf("%d nodes", len(doc.Nodes))),
				cliui.DimStyle.Render("→ "+outPath),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the document to a file instead of stdout")
	workspace.AddStorageFlags(cmd)

	return cmd
}

func writeFile(path string, doc *transfer.Document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return transfer.Write(f, doc)
}
