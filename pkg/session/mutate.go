package session

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/arbor/pkg/eventstream"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// ErrNotEmpty is returned by Seed when the tree already has nodes.
var ErrNotEmpty = errors.New("tree is not empty")

// AddNode creates a node under parentID, or a new root when parentID is "".
//
// The timestamp is assigned here and the token count is estimated from the
// content when meta leaves it at zero. New nodes are never pinned. The active
// cursor moves to the new node only if the tree was empty or role is
// assistant.
func (s *Session) AddNode(parentID string, role tree.Role, content string, meta tree.Metadata) (*tree.Node, error) {
	s.mu.Lock()
	n, ev, err := s.addNodeLocked(parentID, role, content, meta)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.emit(ev)
	return n, nil
}

func (s *Session) addNodeLocked(parentID string, role tree.Role, content string, meta tree.Metadata) (*tree.Node, *eventstream.MutationEvent, error) {
	if !role.Valid() {
		return nil, nil, fmt.Errorf("unknown role %q", role)
	}

	if parentID != "" && !s.store.Has(parentID) {
		return nil, nil, tree.NotFoundError{ID: parentID}
	}

	wasEmpty := s.store.Len() == 0

	meta.Timestamp = s.tick()
	meta.IsPinned = false
	if meta.TokenCount <= 0 {
		meta.TokenCount = tree.EstimateTokens(content)
	}

	n := tree.NewNode(parentID, role, content, meta)
	if err := s.store.Insert(n); err != nil {
		return nil, nil, err
	}

	if parentID != "" {
		if err := s.store.AttachChild(parentID, n.ID); err != nil {
			s.store.Remove(n.ID)
			return nil, nil, err
		}
	}

	if wasEmpty || role == tree.RoleAssistant {
		s.active = n.ID
	}

	s.logger.Debug("node added",
		"id", n.ID,
		"parent_id", parentID,
		"role", role,
		"tokens", meta.TokenCount,
	)

	ev := s.event(eventstream.EventTypeNodeAdded, n.ID)
	ev.ParentID = parentID
	ev.Role = string(role)

	return n.Clone(), ev, nil
}

// Seed creates the first root of an empty tree as a user turn.
func (s *Session) Seed(content string) (*tree.Node, error) {
	s.mu.Lock()
	if s.store.Len() > 0 {
		s.mu.Unlock()
		return nil, ErrNotEmpty
	}
	n, ev, err := s.addNodeLocked("", tree.RoleUser, content, tree.Metadata{})
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.emit(ev)
	return n, nil
}

// DeleteNode removes id and its whole subtree, and returns the removed ids
// with id first.
//
// If the active cursor pointed into the removed set it moves to the first
// remaining node in store order, or to none. The selected cursor is cleared
// if it pointed into the removed set.
func (s *Session) DeleteNode(id string) ([]string, error) {
	s.mu.Lock()

	n, err := s.store.Get(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	descendants, err := s.store.Descendants(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	removed := make([]string, 0, len(descendants)+1)
	removed = append(removed, id)
	for _, d := range descendants {
		removed = append(removed, d.ID)
	}

	parentID := n.Parent()
	s.store.Remove(removed...)

	gone := make(map[string]bool, len(removed))
	for _, r := range removed {
		gone[r] = true
	}

	if gone[s.active] {
		s.active = ""
		if first := s.store.First(); first != nil {
			s.active = first.ID
		}
	}
	if gone[s.selected] {
		s.selected = ""
	}

	s.logger.Debug("subtree deleted",
		"id", id,
		"removed", len(removed),
		"active_id", s.active,
	)

	ev := s.event(eventstream.EventTypeNodeDeleted, id)
	ev.ParentID = parentID
	ev.RemovedIDs = removed
	s.mu.Unlock()

	s.emit(ev)
	return removed, nil
}

// TogglePin unpins id if it is pinned. Otherwise it pins id and unpins every
// other node in the same step. It returns the new pin state of id.
func (s *Session) TogglePin(id string) (bool, error) {
	s.mu.Lock()

	n, err := s.store.Get(id)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	pinned := !n.Metadata.IsPinned
	if pinned {
		for _, other := range s.store.Pinned() {
			other.Metadata.IsPinned = false
		}
	}
	n.Metadata.IsPinned = pinned

	s.logger.Debug("pin toggled", "id", id, "pinned", pinned)

	ev := s.event(eventstream.EventTypeNodePinned, id)
	ev.Pinned = pinned
	s.mu.Unlock()

	s.emit(ev)
	return pinned, nil
}
