// Package transfer reads and writes portable tree exports.
//
// An export is a JSON wrapper {nodes, exportedAt, version}. Import checks
// that nodes is present and array-shaped, validates each node's fields, and
// by default rejects trees whose parent/child links are inconsistent.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/papercomputeco/arbor/pkg/tree"
)

// Version is the export format version written by Export.
const Version = "1.0"

var validate = validator.New()

// Document is the export wrapper.
type Document struct {
	Nodes      []*tree.Node `json:"nodes"`
	ExportedAt time.Time    `json:"exportedAt"`
	Version    string       `json:"version"`
}

// Options control Import.
type Options struct {
	// Trust skips the structural integrity pass and accepts any tree whose
	// nodes are individually well formed.
	Trust bool
}

// Export wraps nodes in a Document stamped with now.
func Export(nodes []*tree.Node, now time.Time) *Document {
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return &Document{
		Nodes:      out,
		ExportedAt: now.UTC(),
		Version:    Version,
	}
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Read decodes and validates an export. Any failure is a
// tree.InvalidImportError and no nodes are returned.
func Read(r io.Reader, opts Options) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	return Import(data, opts)
}

// Import decodes and validates an export payload.
func Import(data []byte, opts Options) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, tree.InvalidImportError{Reason: "payload is not a JSON object", Err: err}
	}

	nodesRaw, ok := raw["nodes"]
	if !ok {
		return nil, tree.InvalidImportError{Reason: "missing nodes"}
	}
	if trimmed := bytes.TrimSpace(nodesRaw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, tree.InvalidImportError{Reason: "nodes is not an array"}
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, tree.InvalidImportError{Reason: "malformed export", Err: err}
	}

	for i, n := range doc.Nodes {
		if n == nil {
			return nil, tree.InvalidImportError{Reason: fmt.Sprintf("node %d is null", i)}
		}
		if n.Children == nil {
			n.Children = []string{}
		}
		if err := validate.Struct(n); err != nil {
			return nil, tree.InvalidImportError{
				Reason: fmt.Sprintf("node %d", i),
				Err:    formatValidationError(err),
			}
		}
	}

	if opts.Trust {
		return doc, nil
	}

	if err := tree.IssuesError(tree.NewStore(doc.Nodes...).Validate()); err != nil {
		return nil, tree.InvalidImportError{Reason: "inconsistent tree", Err: err}
	}

	return doc, nil
}

// formatValidationError flattens validator errors into one readable error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
