// Package projectscmder provides the projects command for listing the
// projects stored by the configured driver.
package projectscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
)

const projectsShortDesc string = "List stored projects"

func NewProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: projectsShortDesc,
		Long: `List the projects stored by the configured storage driver.

The project selected with --project is marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			projects, err := ws.Driver.Projects(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No projects stored yet."))
				return nil
			}

			fmt.Fprintln(out)
			for _, p := range projects {
				mark := " "
				if p == ws.Project {
					mark = cliui.SuccessMark
				}
				fmt.Fprintf(out, "  %s %s\n", mark, cliui.NameStyle.Render(p))
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	workspace.AddStorageFlags(cmd)

	return cmd
}
