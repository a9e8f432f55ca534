package storage

import (
	"fmt"

	"github.com/papercomputeco/arbor/pkg/tree"
)

// ErrEmptyProject is returned when a driver is called without a project name.
type ErrEmptyProject struct{}

func (ErrEmptyProject) Error() string {
	return "project name is required"
}

// versionError reports a record written under a different schema version.
func versionError(id string, got int) error {
	return tree.InvalidImportError{
		Reason: fmt.Sprintf("node %s has schema_version %d, want %d", id, got, SchemaVersion),
	}
}
