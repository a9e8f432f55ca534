// Package storage persists conversation trees per project.
package storage

import (
	"context"

	"github.com/papercomputeco/arbor/pkg/tree"
)

// Driver defines the interface for persisting and loading a project's nodes.
// A project is saved and loaded as a whole; drivers do not re-check tree
// integrity on load.
type Driver interface {
	// Load returns the nodes of a project in their saved order. It returns
	// nil, nil when the project has never been saved.
	Load(ctx context.Context, project string) ([]*tree.Node, error)

	// Save replaces the stored nodes of a project.
	Save(ctx context.Context, project string, nodes []*tree.Node) error

	// Projects lists the saved project names in ascending order.
	Projects(ctx context.Context) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}
