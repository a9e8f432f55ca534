// Package inmemory provides a process-local storage driver.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/arbor/pkg/storage"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of projects
	mu sync.RWMutex

	// projects maps a project name to its records in saved order
	projects map[string][]storage.Record
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		projects: make(map[string][]storage.Record),
	}
}

// Load returns copies of the saved nodes, or nil, nil for unknown projects.
func (d *Driver) Load(_ context.Context, project string) ([]*tree.Node, error) {
	if project == "" {
		return nil, storage.ErrEmptyProject{}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	records, ok := d.projects[project]
	if !ok {
		return nil, nil
	}
	return storage.Nodes(records)
}

// Save replaces the records of a project. Nodes are copied so later
// mutations by the caller do not leak into the store.
func (d *Driver) Save(_ context.Context, project string, nodes []*tree.Node) error {
	if project == "" {
		return storage.ErrEmptyProject{}
	}

	records := storage.NewRecords(nodes)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.projects[project] = records
	return nil
}

// Projects lists saved project names in ascending order.
func (d *Driver) Projects(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.projects))
	for name := range d.projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Put stores raw records for a project. It is used to seed fixtures,
// including records from other schema versions.
func (d *Driver) Put(project string, records []storage.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.projects[project] = append([]storage.Record{}, records...)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
