package tree

import "fmt"

// NotFoundError is returned when an operation references an id that is not
// in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "node not found"
	}

	return "node not found: " + e.ID
}

// CycleError is returned when walking the parent chain from ID never reaches
// a root. The store should never contain one; it only shows up with corrupted
// input.
type CycleError struct {
	ID string
}

func (e CycleError) Error() string {
	return "cycle detected in ancestry of node " + e.ID
}

// InvalidImportError is returned when a persisted or imported payload is
// malformed. The whole payload is rejected.
type InvalidImportError struct {
	Reason string
	Err    error
}

func (e InvalidImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import: %s: %v", e.Reason, e.Err)
	}
	return "invalid import: " + e.Reason
}

func (e InvalidImportError) Unwrap() error {
	return e.Err
}
