package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// Style definitions.
var (
	setStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hiddenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	deadlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderTree writes the forest as an indented tree, one node per line,
// with box-drawing branches like:
//
//	▸ Work  (3f2a…)
//	├── ○ Write report  due 2025-06-30  [1/2 episodes]
//	└── ▸ Sub project
//	    └── ● Deep task
func renderTree(w io.Writer, roots []models.Node) {
	for _, n := range roots {
		fmt.Fprintln(w, nodeLine(n))
		if set, ok := models.AsTaskSet(n); ok {
			renderChildren(w, set.Children, "")
		}
	}
}

func renderChildren(w io.Writer, nodes []models.Node, prefix string) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		fmt.Fprintln(w, branchStyle.Render(prefix+connector)+nodeLine(n))
		if set, ok := models.AsTaskSet(n); ok {
			renderChildren(w, set.Children, prefix+indent)
		}
	}
}

func nodeLine(n models.Node) string {
	id := idStyle.Render("(" + n.NodeID() + ")")
	switch v := n.(type) {
	case *models.Task:
		mark, style := "○", pendingStyle
		if v.Completed {
			mark, style = "●", doneStyle
		}
		parts := []string{style.Render(mark + " " + v.Title)}
		if v.Deadline != "" {
			parts = append(parts, deadlineStyle.Render("due "+v.Deadline))
		}
		if len(v.Episodes) > 0 {
			parts = append(parts, fmt.Sprintf("[%d/%d episodes]", completedEpisodes(v), len(v.Episodes)))
		}
		parts = append(parts, id)
		return strings.Join(parts, "  ")
	case *models.TaskSet:
		if v.Hidden {
			return hiddenStyle.Render("▹ "+v.Title+" (archived)") + "  " + id
		}
		return setStyle.Render("▸ "+v.Title) + "  " + id
	}
	return ""
}

func completedEpisodes(t *models.Task) int {
	done := 0
	for _, ep := range t.Episodes {
		if ep.Completed {
			done++
		}
	}
	return done
}

// renderDetail writes one node with all of its fields and its location.
func renderDetail(w io.Writer, n models.Node, path []string) {
	fmt.Fprintln(w, nodeLine(n))
	fmt.Fprintf(w, "  %-13s %s\n", "ID:", n.NodeID())
	fmt.Fprintf(w, "  %-13s %s\n", "Type:", n.NodeType())
	location := "top level"
	if len(path) > 0 {
		location = strings.Join(path, " / ")
	}
	fmt.Fprintf(w, "  %-13s %s\n", "Location:", location)
	if d := models.Base(n).Description; d != "" {
		fmt.Fprintf(w, "  %-13s %s\n", "Description:", d)
	}

	switch v := n.(type) {
	case *models.Task:
		status := "pending"
		if v.Completed {
			status = "completed"
		}
		fmt.Fprintf(w, "  %-13s %s\n", "Status:", status)
		if v.Deadline != "" {
			fmt.Fprintf(w, "  %-13s %s\n", "Deadline:", v.Deadline)
		}
		if v.VideoURL != "" {
			fmt.Fprintf(w, "  %-13s %s\n", "Video:", v.VideoURL)
		}
		if len(v.Episodes) > 0 {
			fmt.Fprintf(w, "  Episodes (%d/%d done):\n", completedEpisodes(v), len(v.Episodes))
			for _, ep := range v.Episodes {
				mark := "○"
				if ep.Completed {
					mark = "●"
				}
				line := fmt.Sprintf("    %s %2d. %s", mark, ep.Number, ep.DisplayTitle())
				if ep.Deadline != "" {
					line += "  due " + ep.Deadline
				}
				fmt.Fprintln(w, line+"  "+idStyle.Render("("+ep.ID+")"))
			}
		}
	case *models.TaskSet:
		stats := core.Stats(v.Children)
		fmt.Fprintf(w, "  %-13s %t\n", "Archived:", v.Hidden)
		fmt.Fprintf(w, "  %-13s %s, %s (%d completed)\n", "Contains:",
			plural(stats.TaskSets, "set"), plural(stats.Tasks, "task"), stats.Completed)
	}
}

// renderStats writes the one-line board summary printed under `kb list`.
func renderStats(w io.Writer, s core.BoardStats) {
	fmt.Fprintf(w, "\n%s, %d completed, %s (%d archived), %s\n",
		plural(s.Tasks, "task"), s.Completed, plural(s.TaskSets, "set"), s.Hidden, plural(s.Episodes, "episode"))
}
