package memory

import (
	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// View bundles everything an inspector shows for a position in the tree:
// the compiled messages, their summary and the advisory size report.
type View struct {
	ActiveID string        `json:"active_id"`
	Messages []llm.Message `json:"messages"`
	Summary  Summary       `json:"summary"`
	Report   Report        `json:"report"`
}

// Inspect compiles the context at activeID for prompt and reports on it.
func Inspect(store *tree.Store, activeID, prompt string, budget int) (*View, error) {
	messages, err := CompileStore(store, activeID, prompt)
	if err != nil {
		return nil, err
	}

	summary, err := SummarizeStore(store, activeID)
	if err != nil {
		return nil, err
	}

	return &View{
		ActiveID: activeID,
		Messages: messages,
		Summary:  summary,
		Report:   Validate(messages, budget),
	}, nil
}
