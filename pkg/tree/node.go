// Package tree is the node store and navigator for branching conversations.
//
// Nodes live in an id-indexed arena (see Store). Parent and child links are
// plain id references, so removal and integrity checks never chase live
// pointers.
package tree

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// charsPerToken is the content-length heuristic used for token estimates.
const charsPerToken = 4

// Metadata holds the mutable and descriptive fields of a node.
type Metadata struct {
	// Timestamp is the creation time. Within a session it strictly increases.
	Timestamp time.Time `json:"timestamp"`

	// ModelUsed is the model that produced an assistant turn, if any.
	ModelUsed string `json:"modelUsed,omitempty"`

	// TokenCount is a non-negative token estimate for Content.
	TokenCount int `json:"tokenCount" validate:"gte=0"`

	// IsPinned marks the node as always-included context. At most one node
	// in a store may be pinned.
	IsPinned bool `json:"isPinned"`
}

// Node is a single message turn in the conversation tree.
type Node struct {
	// ID is an opaque unique identifier, immutable after creation.
	ID string `json:"id" validate:"required"`

	// ParentID links to the parent node. Nil for roots.
	ParentID *string `json:"parentId"`

	// Children holds the ids of child nodes, in creation order.
	Children []string `json:"children"`

	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`

	Metadata Metadata `json:"metadata"`
}

// NewNode creates a node with a fresh id. The parent link is recorded on the
// node only; attaching to the parent's children is the store's job.
func NewNode(parentID string, role Role, content string, meta Metadata) *Node {
	n := &Node{
		ID:       uuid.NewString(),
		Children: []string{},
		Role:     role,
		Content:  content,
		Metadata: meta,
	}

	if parentID != "" {
		p := parentID
		n.ParentID = &p
	}

	return n
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// Parent returns the parent id, or "" for roots.
func (n *Node) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	c.Children = append([]string{}, n.Children...)
	return &c
}

// EstimateTokens returns a rough token estimate using a fixed number of
// characters per token, rounded up.
func EstimateTokens(text string) int {
	return TokensForChars(len(text))
}

// TokensForChars converts a character count into a token estimate.
func TokensForChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + charsPerToken - 1) / charsPerToken
}
