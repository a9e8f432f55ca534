package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// IssueKind classifies a structural problem found by Validate.
type IssueKind string

const (
	IssueDuplicateID    IssueKind = "duplicate_id"
	IssueDanglingParent IssueKind = "dangling_parent"
	IssueMissingBackref IssueKind = "missing_backref"
	IssueDanglingChild  IssueKind = "dangling_child"
	IssueForeignChild   IssueKind = "foreign_child"
	IssueDuplicateChild IssueKind = "duplicate_child"
	IssueCycle          IssueKind = "cycle"
	IssueUnknownRole    IssueKind = "unknown_role"
	IssueMultiplePinned IssueKind = "multiple_pinned"
	IssueNegativeTokens IssueKind = "negative_token_count"
)

// Issue is a single structural problem in a store.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	NodeID string    `json:"node_id,omitempty"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", i.Kind, i.NodeID, i.Detail)
}

// Validate runs a full integrity pass and reports every problem found.
// Nothing is repaired.
func (s *Store) Validate() []Issue {
	issues := []Issue{}

	for _, id := range s.duplicates {
		issues = append(issues, Issue{Kind: IssueDuplicateID, NodeID: id, Detail: "id appears more than once"})
	}

	cyclic := s.cyclicNodes()

	pinned := 0
	for _, id := range s.order {
		n := s.index[id]

		if !n.Role.Valid() {
			issues = append(issues, Issue{Kind: IssueUnknownRole, NodeID: id, Detail: fmt.Sprintf("role %q", n.Role)})
		}
		if n.Metadata.TokenCount < 0 {
			issues = append(issues, Issue{Kind: IssueNegativeTokens, NodeID: id, Detail: fmt.Sprintf("token count %d", n.Metadata.TokenCount)})
		}
		if n.Metadata.IsPinned {
			pinned++
		}

		if n.ParentID != nil {
			parent, ok := s.index[*n.ParentID]
			switch {
			case !ok:
				issues = append(issues, Issue{Kind: IssueDanglingParent, NodeID: id, Detail: "parent " + *n.ParentID + " does not exist"})
			case !slices.Contains(parent.Children, id):
				issues = append(issues, Issue{Kind: IssueMissingBackref, NodeID: id, Detail: "parent " + parent.ID + " does not list this node as a child"})
			}
		}

		seen := make(map[string]bool, len(n.Children))
		for _, childID := range n.Children {
			if seen[childID] {
				issues = append(issues, Issue{Kind: IssueDuplicateChild, NodeID: id, Detail: "child " + childID + " listed twice"})
				continue
			}
			seen[childID] = true

			child, ok := s.index[childID]
			if !ok {
				issues = append(issues, Issue{Kind: IssueDanglingChild, NodeID: id, Detail: "child " + childID + " does not exist"})
				continue
			}
			if child.Parent() != id {
				issues = append(issues, Issue{Kind: IssueForeignChild, NodeID: id, Detail: "child " + childID + " has a different parent"})
			}
		}

		if cyclic[id] {
			issues = append(issues, Issue{Kind: IssueCycle, NodeID: id, Detail: "ancestry never reaches a root"})
		}
	}

	if pinned > 1 {
		issues = append(issues, Issue{Kind: IssueMultiplePinned, Detail: fmt.Sprintf("%d nodes pinned", pinned)})
	}

	return issues
}

// cyclicNodes returns the ids whose parent chain never ends, either because
// they sit on a cycle or lead into one. Every node's outcome is recorded the
// first time a walk passes through it, so the pass is linear in the store
// size.
func (s *Store) cyclicNodes() map[string]bool {
	const (
		unvisited = iota
		walking
		ends
		loops
	)

	state := make(map[string]int, len(s.order))
	cyclic := make(map[string]bool)

	for _, start := range s.order {
		var walk []string
		outcome := ends

		current := start
	chain:
		for {
			switch state[current] {
			case walking:
				outcome = loops
				break chain
			case ends, loops:
				outcome = state[current]
				break chain
			}

			node, ok := s.index[current]
			if !ok || node.ParentID == nil {
				// Roots and dangling parents both end the chain.
				break
			}
			state[current] = walking
			walk = append(walk, current)
			current = *node.ParentID
		}

		for _, id := range walk {
			state[id] = outcome
			if outcome == loops {
				cyclic[id] = true
			}
		}
	}

	return cyclic
}

// IssuesError joins issues into a single error, or returns nil when there
// are none.
func IssuesError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}

	parts := make([]string, 0, len(issues))
	for _, i := range issues {
		parts = append(parts, i.String())
	}
	return errors.New(strings.Join(parts, "; "))
}

