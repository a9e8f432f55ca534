package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/arbor/pkg/memory"
	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/utils"
)

// RenderContext writes a compiled context as a numbered message list
// followed by its summary and budget warnings.
func RenderContext(w io.Writer, view *memory.View) {
	at := "(no active node)"
	if view.ActiveID != "" {
		at = ShortID(view.ActiveID)
	}

	fmt.Fprintf(w, "\n  %s %s %s\n\n",
		KeyStyle.Render("Context at"),
		IDStyle.Render(at),
		DimStyle.Render(fmt.Sprintf("(%s memory)", view.Summary.Policy)),
	)

	for i, m := range view.Messages {
		content := strings.Join(strings.Fields(m.Content), " ")
		fmt.Fprintf(w, "  %s %s %s\n",
			DimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			RoleLabel(tree.Role(m.Role)),
			utils.Truncate(content, 72),
		)
	}

	s := view.Summary
	fmt.Fprintf(w, "\n  %s %d pinned, %d ancestors, %d descendants %s\n",
		KeyStyle.Render("Summary:"),
		s.Pinned, s.Ancestors, s.Descendants,
		DimStyle.Render(fmt.Sprintf("(%d nodes, %d tokens)", s.Total, s.Tokens)),
	)

	r := view.Report
	fmt.Fprintf(w, "  %s ~%d of %d tokens across %d messages\n",
		KeyStyle.Render("Budget:"),
		r.EstimatedTokens, r.Budget, r.Messages,
	)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", WarnMark, warning)
	}
	fmt.Fprintln(w)
}
