package tree

import (
	"errors"
	"slices"
)

// Store is an id-indexed arena of nodes.
//
// Store is not safe for concurrent use; the session serializes writers.
type Store struct {
	// order preserves insertion ("store") order
	order []string

	// index provides O(1) lookup by node id
	index map[string]*Node

	// duplicates records ids that appeared more than once when the store was
	// built. The first occurrence wins.
	duplicates []string
}

// NewStore builds a store over the given nodes in the given order. Nodes are
// indexed, not copied.
func NewStore(nodes ...*Node) *Store {
	s := &Store{
		order: make([]string, 0, len(nodes)),
		index: make(map[string]*Node, len(nodes)),
	}

	for _, n := range nodes {
		if n == nil {
			continue
		}
		if _, ok := s.index[n.ID]; ok {
			s.duplicates = append(s.duplicates, n.ID)
			continue
		}
		s.order = append(s.order, n.ID)
		s.index[n.ID] = n
	}

	return s
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	return len(s.order)
}

// Has reports whether id is in the store.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Get returns the node with the given id.
func (s *Store) Get(id string) (*Node, error) {
	n, ok := s.index[id]
	if !ok {
		return nil, NotFoundError{ID: id}
	}
	return n, nil
}

// Nodes returns every node in store order.
func (s *Store) Nodes() []*Node {
	nodes := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.index[id])
	}
	return nodes
}

// First returns the first node in store order, or nil for an empty store.
func (s *Store) First() *Node {
	if len(s.order) == 0 {
		return nil
	}
	return s.index[s.order[0]]
}

// Roots returns all nodes without a parent, in store order.
func (s *Store) Roots() []*Node {
	roots := []*Node{}
	for _, id := range s.order {
		if n := s.index[id]; n.IsRoot() {
			roots = append(roots, n)
		}
	}
	return roots
}

// Leaves returns all nodes without children, in store order.
func (s *Store) Leaves() []*Node {
	leaves := []*Node{}
	for _, id := range s.order {
		if n := s.index[id]; len(n.Children) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// PathToRoot returns the ancestor path of id, root first and the node itself
// last.
//
// The walk is bounded by the store size: a chain longer than that must
// contain a cycle and yields a CycleError instead of looping.
func (s *Store) PathToRoot(id string) ([]*Node, error) {
	path := []*Node{}
	current := id

	for steps := 0; ; steps++ {
		if steps > len(s.order) {
			return nil, CycleError{ID: id}
		}

		node, ok := s.index[current]
		if !ok {
			return nil, NotFoundError{ID: current}
		}
		path = append(path, node)

		if node.ParentID == nil {
			break
		}
		current = *node.ParentID
	}

	slices.Reverse(path)
	return path, nil
}

// Root returns the root of the tree containing id.
func (s *Store) Root(id string) (*Node, error) {
	path, err := s.PathToRoot(id)
	if err != nil {
		return nil, err
	}
	return path[0], nil
}

// Depth returns the number of edges between id and its root (0 for roots).
func (s *Store) Depth(id string) (int, error) {
	path, err := s.PathToRoot(id)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// Descendants returns every node in the subtree rooted at id, excluding id
// itself, in pre-order. Child ids that do not resolve are skipped.
func (s *Store) Descendants(id string) ([]*Node, error) {
	node, ok := s.index[id]
	if !ok {
		return nil, NotFoundError{ID: id}
	}

	descendants := []*Node{}
	visited := map[string]bool{id: true}

	var visit func(n *Node)
	visit = func(n *Node) {
		for _, childID := range n.Children {
			if visited[childID] {
				continue
			}
			child, ok := s.index[childID]
			if !ok {
				continue
			}
			visited[childID] = true
			descendants = append(descendants, child)
			visit(child)
		}
	}
	visit(node)

	return descendants, nil
}

// Walk traverses every tree depth-first from its root, calling f for each
// node with its depth. Traversal stops when f returns false.
func (s *Store) Walk(f func(n *Node, depth int) bool) {
	visited := make(map[string]bool, len(s.order))

	var walk func(n *Node, depth int) bool
	walk = func(n *Node, depth int) bool {
		if visited[n.ID] {
			return true
		}
		visited[n.ID] = true

		if !f(n, depth) {
			return false
		}
		for _, childID := range n.Children {
			child, ok := s.index[childID]
			if !ok {
				continue
			}
			if !walk(child, depth+1) {
				return false
			}
		}
		return true
	}

	for _, root := range s.Roots() {
		if !walk(root, 0) {
			return
		}
	}
}

// Insert appends a node to the store. It does not touch the parent's
// children; see AttachChild.
func (s *Store) Insert(n *Node) error {
	if n == nil {
		return errors.New("cannot insert nil node")
	}
	if _, ok := s.index[n.ID]; ok {
		return errors.New("node already exists: " + n.ID)
	}

	s.order = append(s.order, n.ID)
	s.index[n.ID] = n
	return nil
}

// AttachChild appends childID to the parent's children. Attaching the same
// child twice is a no-op.
func (s *Store) AttachChild(parentID, childID string) error {
	parent, ok := s.index[parentID]
	if !ok {
		return NotFoundError{ID: parentID}
	}

	if slices.Contains(parent.Children, childID) {
		return nil
	}
	parent.Children = append(parent.Children, childID)
	return nil
}

// Remove deletes the given ids from the store and strips them from the
// children of every remaining node. Unknown ids are ignored.
func (s *Store) Remove(ids ...string) {
	if len(ids) == 0 {
		return
	}

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
		delete(s.index, id)
	}

	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		return removed[id]
	})

	for _, id := range s.order {
		n := s.index[id]
		n.Children = slices.DeleteFunc(n.Children, func(c string) bool {
			return removed[c]
		})
	}
}

// Pinned returns every pinned node in store order.
func (s *Store) Pinned() []*Node {
	pinned := []*Node{}
	for _, id := range s.order {
		if n := s.index[id]; n.Metadata.IsPinned {
			pinned = append(pinned, n)
		}
	}
	return pinned
}
