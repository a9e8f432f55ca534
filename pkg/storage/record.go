package storage

import (
	"github.com/papercomputeco/arbor/pkg/tree"
)

// SchemaVersion tags every persisted record. Bump it whenever the record
// shape changes.
const SchemaVersion = 1

// Record is the persisted form of a tree.Node: the node's own fields and
// metadata nesting, tagged with the schema version it was written under.
type Record struct {
	SchemaVersion int `json:"schema_version"`
	tree.Node
}

// NewRecord converts a node into a record tagged with SchemaVersion.
func NewRecord(n *tree.Node) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		Node:          *n.Clone(),
	}
}

// ToNode converts the record back into a tree.Node. It fails with a
// tree.InvalidImportError when the record was written under another schema
// version.
func (r Record) ToNode() (*tree.Node, error) {
	if r.SchemaVersion != SchemaVersion {
		return nil, versionError(r.ID, r.SchemaVersion)
	}
	return r.Node.Clone(), nil
}

// NewRecords converts nodes into records, preserving order.
func NewRecords(nodes []*tree.Node) []Record {
	records := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, NewRecord(n))
	}
	return records
}

// Nodes converts records back into nodes. The first version mismatch aborts
// the whole conversion.
func Nodes(records []Record) ([]*tree.Node, error) {
	nodes := make([]*tree.Node, 0, len(records))
	for _, r := range records {
		n, err := r.ToNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}
