package memory

import (
	"fmt"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/tree"
)

// Report is the advisory result of Validate. Warnings never block sending.
type Report struct {
	Messages        int      `json:"messages"`
	EstimatedTokens int      `json:"estimated_tokens"`
	Budget          int      `json:"budget"`
	Warnings        []string `json:"warnings,omitempty"`
}

// OK reports whether no warnings were raised.
func (r Report) OK() bool {
	return len(r.Warnings) == 0
}

// Validate estimates the token size of a compiled message list with a
// content-length heuristic and warns when it is empty or over budget.
// A budget of zero or less disables the budget check.
func Validate(messages []llm.Message, budget int) Report {
	r := Report{
		Messages: len(messages),
		Budget:   budget,
	}

	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	r.EstimatedTokens = tree.TokensForChars(chars)

	if len(messages) == 0 {
		r.Warnings = append(r.Warnings, "message list is empty")
	}

	if budget > 0 && r.EstimatedTokens > budget {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"estimated %d tokens exceeds budget of %d", r.EstimatedTokens, budget,
		))
	}

	return r
}
