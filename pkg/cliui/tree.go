package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/arbor/pkg/tree"
	"github.com/papercomputeco/arbor/pkg/utils"
)

const shortIDLen = 8

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pinStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// ShortID returns the display prefix of a node id.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// RoleLabel renders a role name in its color.
func RoleLabel(r tree.Role) string {
	if r == tree.RoleAssistant {
		return assistantStyle.Render(string(r))
	}
	return userStyle.Render(string(r))
}

// TreeView configures RenderTree.
type TreeView struct {
	ActiveID   string
	SelectedID string

	// Width truncates node content; 0 means 60 characters.
	Width int
}

// RenderTree writes the forest in store as an indented outline, marking the
// active, selected and pinned nodes.
func RenderTree(w io.Writer, store *tree.Store, view TreeView) {
	width := view.Width
	if width <= 0 {
		width = 60
	}

	if store.Len() == 0 {
		fmt.Fprintln(w, DimStyle.Render("  (empty tree)"))
		return
	}

	store.Walk(func(n *tree.Node, depth int) bool {
		var marks []string
		if n.ID == view.ActiveID {
			marks = append(marks, activeStyle.Render("● active"))
		}
		if n.ID == view.SelectedID {
			marks = append(marks, selectedStyle.Render("◆ selected"))
		}
		if n.Metadata.IsPinned {
			marks = append(marks, pinStyle.Render("📌 pinned"))
		}

		content := strings.Join(strings.Fields(n.Content), " ")
		line := fmt.Sprintf("%s%s %s %s",
			strings.Repeat("  ", depth+1),
			IDStyle.Render(ShortID(n.ID)),
			RoleLabel(n.Role),
			ValueStyle.Render(utils.Truncate(content, width)),
		)
		if len(marks) > 0 {
			line += "  " + strings.Join(marks, " ")
		}
		fmt.Fprintln(w, line)
		return true
	})
}
