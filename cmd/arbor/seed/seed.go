// Package seedcmder provides the seed command, which writes a small demo
// tree into a project.
package seedcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arbor/cmd/arbor/workspace"
	"github.com/papercomputeco/arbor/pkg/cliui"
	"github.com/papercomputeco/arbor/pkg/session"
	"github.com/papercomputeco/arbor/pkg/tree"
)

const seedLongDesc string = `Seed a demo conversation tree into a project.

The demo is a trip-planning conversation with two branches under one root:

  let's plan a trip
  ├── recipe for the road?
  │   └── (recipe)
  │       └── what are the benefits?
  │           └── (benefits)
  └── places to visit

The root stays active, so the next prompt sees every branch (hierarchical
memory). Seeding fails on a non-empty project unless --overwrite is given.

Examples:
  arbor seed
  arbor seed --project demo --overwrite`

const seedShortDesc string = "Seed a demo tree"

type seedCommander struct {
	overwrite bool
}

// demoTurn is one node of the demo tree. Parent indexes an earlier turn; -1
// makes a root.
type demoTurn struct {
	parent  int
	role    tree.Role
	content string
}

var demoTree = []demoTurn{
	{-1, tree.RoleUser, "Let's plan a trip to Lisbon in May."},
	{0, tree.RoleUser, "Can you give me a recipe for pastéis de nata I can bake before the trip?"},
	{1, tree.RoleAssistant, "Pastéis de nata: roll puff pastry into a log, slice into discs and press into a muffin tin. Whisk yolks, sugar, milk, flour, lemon zest and cinnamon into a custard, fill the shells and bake at 290°C for about 12 minutes until blistered."},
	{2, tree.RoleUser, "What are the benefits of baking them at such a high temperature?"},
	{3, tree.RoleAssistant, "The high heat caramelises the custard top quickly while the pastry crisps, so the filling stays soft and just set instead of curdling over a long bake."},
	{0, tree.RoleUser, "Which neighbourhoods should we visit?"},
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.overwrite, "overwrite", "f", false, "Replace a non-empty project")
	workspace.AddStorageFlags(cmd)

	return cmd
}

func (c *seedCommander) run(cmd *cobra.Command) error {
	ws, err := workspace.FromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if ws.Session.Len() > 0 {
		if !c.overwrite {
			return fmt.Errorf("project %q already has %d nodes; pass --overwrite to replace it", ws.Project, ws.Session.Len())
		}
		ws.Replace(nil)
	}

	var root *tree.Node
	if err := cliui.Step(cmd.ErrOrStderr(), "Seeding demo tree", func() error {
		root, err = seed(ws.Session)
		return err
	}); err != nil {
		return err
	}

	if err := ws.Session.SetActive(root.ID); err != nil {
		return err
	}
	if err := ws.Save(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s Seeded %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(fmt.Sprintf("%d nodes", len(demoTree))),
		cliui.NameStyle.Render(ws.Project),
	)
	ws.RenderTree(out)
	fmt.Fprintln(out)

	return nil
}

// seed adds demoTree to an empty session and returns its root.
func seed(s *session.Session) (*tree.Node, error) {
	nodes := make([]*tree.Node, 0, len(demoTree))

	for _, turn := range demoTree {
		var (
			n   *tree.Node
			err error
		)
		if turn.parent < 0 {
			n, err = s.Seed(turn.content)
		} else {
			n, err = s.AddNode(nodes[turn.parent].ID, turn.role, turn.content, tree.Metadata{})
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	if len(nodes) == 0 {
		return nil, errors.New("demo tree is empty")
	}
	return nodes[0], nil
}
