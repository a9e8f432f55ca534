package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	cursorsFile = "cursors.json"
)

// Cursors is the persisted cursor pair for one project.
type Cursors struct {
	// ActiveID is where the next prompt attaches.
	ActiveID string `json:"active_id,omitempty"`

	// SelectedID is the node under inspection.
	SelectedID string `json:"selected_id,omitempty"`
}

// cursorsState is the on-disk layout: cursors keyed by project.
type cursorsState struct {
	Projects map[string]Cursors `json:"projects"`
}

func (m *Manager) readCursors(dir string) (*cursorsState, error) {
	state := &cursorsState{Projects: map[string]Cursors{}}

	data, err := os.ReadFile(filepath.Join(dir, cursorsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, fmt.Errorf("reading cursor state: %w", err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing cursor state: %w", err)
	}
	if state.Projects == nil {
		state.Projects = map[string]Cursors{}
	}

	return state, nil
}

func (m *Manager) writeCursors(dir string, state *cursorsState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cursor state: %w", err)
	}

	path := filepath.Join(dir, cursorsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // cursor ids are not secret
		return fmt.Errorf("writing cursor state: %w", err)
	}

	return nil
}

// LoadCursors loads the cursors for project from .arbor/cursors.json.
// Returns nil, nil if nothing was saved for the project.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadCursors(project, overrideDir string) (*Cursors, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	state, err := m.readCursors(dir)
	if err != nil {
		return nil, err
	}

	c, ok := state.Projects[project]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SaveCursors persists the cursors for project, leaving other projects
// untouched.
func (m *Manager) SaveCursors(project string, cursors *Cursors, overrideDir string) error {
	if cursors == nil {
		return errors.New("cannot save nil cursors")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	state, err := m.readCursors(dir)
	if err != nil {
		return err
	}

	state.Projects[project] = *cursors
	return m.writeCursors(dir, state)
}

// ClearCursors removes the saved cursors for project.
// Returns nil if nothing was saved.
func (m *Manager) ClearCursors(project, overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	state, err := m.readCursors(dir)
	if err != nil {
		return err
	}

	if _, ok := state.Projects[project]; !ok {
		return nil
	}

	delete(state.Projects, project)
	return m.writeCursors(dir, state)
}
