package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeNodeAdded is emitted after a node is committed to the tree.
	EventTypeNodeAdded = "arbor.node.added"

	// EventTypeNodeDeleted is emitted after a subtree is removed.
	EventTypeNodeDeleted = "arbor.node.deleted"

	// EventTypeNodePinned is emitted after a pin toggle.
	EventTypeNodePinned = "arbor.node.pinned"

	// EventTypeReplyDropped is emitted when a model reply arrives for a
	// parent that no longer exists.
	EventTypeReplyDropped = "arbor.reply.dropped"
)

// MutationEvent is a transport-neutral payload describing one tree mutation.
type MutationEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`

	// NodeID is the node the mutation was applied to. For a dropped reply it
	// is the missing parent.
	NodeID   string `json:"node_id"`
	ParentID string `json:"parent_id,omitempty"`
	Role     string `json:"role,omitempty"`

	// RemovedIDs lists every id removed by a cascading delete.
	RemovedIDs []string `json:"removed_ids,omitempty"`

	// Pinned is the pin state after a toggle.
	Pinned bool `json:"pinned,omitempty"`

	// ActiveID is the active cursor after the mutation.
	ActiveID string `json:"active_id,omitempty"`
}

// EventSource identifies where the mutation originated.
type EventSource struct {
	Project string `json:"project,omitempty"`
	Model   string `json:"model,omitempty"`
}

// NewMutationEvent creates an event with a fresh id and the current time.
func NewMutationEvent(eventType, project, nodeID string) *MutationEvent {
	return &MutationEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        EventSource{Project: project},
		NodeID:        nodeID,
	}
}
