package memory

import "github.com/papercomputeco/arbor/pkg/tree"

// Summary describes what Compile would include for an active node. It is
// introspection only and is never sent to a provider.
type Summary struct {
	Policy Policy `json:"policy"`

	// Pinned, Ancestors and Descendants count the nodes each step emitted
	// after deduplication. Descendants is always 0 outside hierarchical mode.
	Pinned      int `json:"pinned"`
	Ancestors   int `json:"ancestors"`
	Descendants int `json:"descendants"`

	// Total is the number of distinct context nodes.
	Total int `json:"total"`

	// Tokens is the sum of metadata.tokenCount over the included nodes,
	// excluding the new prompt.
	Tokens int `json:"tokens"`
}

// Summarize reports counts and token totals for the context Compile would
// build at activeID.
func Summarize(nodes []*tree.Node, activeID string) (Summary, error) {
	return SummarizeStore(tree.NewStore(nodes...), activeID)
}

// SummarizeStore is Summarize over an existing store.
func SummarizeStore(store *tree.Store, activeID string) (Summary, error) {
	p, err := buildPlan(store, activeID)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Policy:      p.policy,
		Pinned:      len(p.pinned),
		Ancestors:   len(p.ancestors),
		Descendants: len(p.descendants),
	}

	for _, n := range p.nodes() {
		s.Total++
		s.Tokens += n.Metadata.TokenCount
	}

	return s, nil
}
