// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"time"

	"github.com/papercomputeco/arbor/pkg/tree"
)

// Epoch is the first timestamp a Builder hands out.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Builder creates linked nodes with strictly increasing timestamps, one
// second apart, so tests control chronological order.
type Builder struct {
	clock time.Time
	Nodes []*tree.Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{clock: Epoch}
}

// Add creates a node under parent (nil for a root) and links both sides.
func (b *Builder) Add(parent *tree.Node, role tree.Role, text string) *tree.Node {
	b.clock = b.clock.Add(time.Second)

	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}

	n := tree.NewNode(parentID, role, text, tree.Metadata{
		Timestamp:  b.clock,
		TokenCount: tree.EstimateTokens(text),
	})
	if role == tree.RoleAssistant {
		n.Metadata.ModelUsed = "test-model"
	}
	if parent != nil {
		parent.Children = append(parent.Children, n.ID)
	}

	b.Nodes = append(b.Nodes, n)
	return n
}

// TripTree is a small two-branch conversation:
//
//	R  user       "let's plan a trip"
//	├── A user    "recipe?"
//	│   └── C assistant "recipe text"
//	│       └── D user  "what are the benefits"
//	│           └── E assistant "benefits text"
//	└── F user    "places to visit"
type TripTree struct {
	R, A, C, D, E, F *tree.Node
	Nodes            []*tree.Node
}

// NewTripTree builds a TripTree in creation order R, A, C, D, E, F.
func NewTripTree() *TripTree {
	b := NewBuilder()
	t := &TripTree{}
	t.R = b.Add(nil, tree.RoleUser, "let's plan a trip")
	t.A = b.Add(t.R, tree.RoleUser, "recipe?")
	t.C = b.Add(t.A, tree.RoleAssistant, "recipe text")
	t.D = b.Add(t.C, tree.RoleUser, "what are the benefits")
	t.E = b.Add(t.D, tree.RoleAssistant, "benefits text")
	t.F = b.Add(t.R, tree.RoleUser, "places to visit")
	t.Nodes = b.Nodes
	return t
}
