// Package memory compiles the context a model sees from a position in the
// conversation tree.
//
// Two policies decide what is visible:
//
//   - isolated memory: the active node is inside a sub-branch (it has a
//     parent). The model sees the pinned node and the ancestor path only.
//   - hierarchical memory: the active node is a root. The model sees the
//     pinned node, the root, and every descendant across all branches,
//     ordered chronologically rather than by tree structure.
//
// Deduplication is global and by node id: a node emitted by an earlier step
// is never emitted again.
package memory

import (
	"sort"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// Policy names the memory policy applied for an active node.
type Policy string

const (
	// PolicyNone applies when there is no active node (e.g., an empty tree).
	PolicyNone Policy = "none"

	// PolicyIsolated applies to active nodes inside a sub-branch.
	PolicyIsolated Policy = "isolated"

	// PolicyHierarchical applies to active nodes that are roots.
	PolicyHierarchical Policy = "hierarchical"
)

// Classify returns the policy for the given active node.
func Classify(active *tree.Node) Policy {
	if active == nil {
		return PolicyNone
	}
	if active.IsRoot() {
		return PolicyHierarchical
	}
	return PolicyIsolated
}

// plan is the ordered set of nodes a compile includes, split by the step that
// emitted them. Compile and Summarize both read from it.
type plan struct {
	policy      Policy
	pinned      []*tree.Node
	ancestors   []*tree.Node
	descendants []*tree.Node
}

func (p *plan) nodes() []*tree.Node {
	all := make([]*tree.Node, 0, len(p.pinned)+len(p.ancestors)+len(p.descendants))
	all = append(all, p.pinned...)
	all = append(all, p.ancestors...)
	all = append(all, p.descendants...)
	return all
}

// buildPlan walks the store for activeID. An empty activeID yields only the
// pinned set.
func buildPlan(store *tree.Store, activeID string) (*plan, error) {
	p := &plan{policy: PolicyNone}
	seen := make(map[string]bool)

	emit := func(dst *[]*tree.Node, n *tree.Node) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		*dst = append(*dst, n)
	}

	for _, n := range store.Pinned() {
		emit(&p.pinned, n)
	}

	if activeID == "" {
		return p, nil
	}

	path, err := store.PathToRoot(activeID)
	if err != nil {
		return nil, err
	}

	p.policy = Classify(path[len(path)-1])

	for _, n := range path {
		emit(&p.ancestors, n)
	}

	if p.policy != PolicyHierarchical {
		return p, nil
	}

	descendants, err := store.Descendants(path[0].ID)
	if err != nil {
		return nil, err
	}

	// Stable sort keeps pre-order for equal timestamps.
	sort.SliceStable(descendants, func(i, j int) bool {
		return descendants[i].Metadata.Timestamp.Before(descendants[j].Metadata.Timestamp)
	})

	for _, n := range descendants {
		emit(&p.descendants, n)
	}

	return p, nil
}

// Compile returns the ordered message list sent to a model when the user
// types prompt at activeID. The prompt is always the last entry.
//
// Returns a tree.NotFoundError if activeID is set but not in nodes.
func Compile(nodes []*tree.Node, activeID, prompt string) ([]llm.Message, error) {
	return CompileStore(tree.NewStore(nodes...), activeID, prompt)
}

// CompileStore is Compile over an existing store.
func CompileStore(store *tree.Store, activeID, prompt string) ([]llm.Message, error) {
	p, err := buildPlan(store, activeID)
	if err != nil {
		return nil, err
	}

	included := p.nodes()
	messages := make([]llm.Message, 0, len(included)+1)
	for _, n := range included {
		messages = append(messages, llm.Message{
			Role:    string(n.Role),
			Content: n.Content,
		})
	}

	messages = append(messages, llm.NewUserMessage(prompt))
	return messages, nil
}

// Included returns the nodes Compile would include for activeID, in emit
// order, without the synthetic prompt.
func Included(store *tree.Store, activeID string) ([]*tree.Node, error) {
	p, err := buildPlan(store, activeID)
	if err != nil {
		return nil, err
	}
	return p.nodes(), nil
}
