// Package arborcmder is the root arbor command.
package arborcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/arbor/cmd/arbor/auth"
	chatcmder "github.com/papercomputeco/arbor/cmd/arbor/chat"
	configcmder "github.com/papercomputeco/arbor/cmd/arbor/config"
	contextcmder "github.com/papercomputeco/arbor/cmd/arbor/context"
	navcmder "github.com/papercomputeco/arbor/cmd/arbor/nav"
	projectscmder "github.com/papercomputeco/arbor/cmd/arbor/projects"
	seedcmder "github.com/papercomputeco/arbor/cmd/arbor/seed"
	servecmder "github.com/papercomputeco/arbor/cmd/arbor/serve"
	transfercmder "github.com/papercomputeco/arbor/cmd/arbor/transfer"
	treecmder "github.com/papercomputeco/arbor/cmd/arbor/tree"
	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	versioncmder "github.com/papercomputeco/arbor/cmd/version"
)

const arborLongDesc string = `Arbor is a branching conversation tree for LLM chats.

Every prompt and reply is a node. Branch from any node to explore an idea
without polluting the rest of the conversation, pin one node to keep it in
every context, and inspect exactly what the model will see before you send.

Get started:
  arbor seed           Seed a demo tree
  arbor chat           Chat from the active node
  arbor tree           Print the tree
  arbor context        Show the compiled context for the active node`

const arborShortDesc string = "Arbor - branching LLM conversations"

func NewArborCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arbor",
		Short:        arborShortDesc,
		Long:         arborLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	workspace.AddPersistentFlags(cmd)

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(treecmder.NewTreeCmd())
	cmd.AddCommand(contextcmder.NewContextCmd())
	cmd.AddCommand(navcmder.NewCheckoutCmd())
	cmd.AddCommand(navcmder.NewSelectCmd())
	cmd.AddCommand(navcmder.NewPinCmd())
	cmd.AddCommand(navcmder.NewDeleteCmd())
	cmd.AddCommand(transfercmder.NewExportCmd())
	cmd.AddCommand(transfercmder.NewImportCmd())
	cmd.AddCommand(projectscmder.NewProjectsCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
