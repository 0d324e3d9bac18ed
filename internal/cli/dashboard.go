package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/known-board/internal/core"
	"github.com/valter-silva-au/known-board/internal/observability"
	"github.com/valter-silva-au/known-board/pkg/models"
)

// Dashboard panel indices.
const (
	panelBoard = iota
	panelActivity
	panelWarnings
	panelCount
)

// dashboardWarnings is how many recent warnings the dashboard shows.
const dashboardWarnings = 10

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	stats    core.BoardStats
	upcoming []deadlineSnapshot
	activity *observability.Activity
	warnings []warningSnapshot

	// State.
	loading bool
	err     error
}

type deadlineSnapshot struct {
	title    string
	deadline string
}

type warningSnapshot struct {
	time    string
	message string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	stats    core.BoardStats
	upcoming []deadlineSnapshot
	activity *observability.Activity
	warnings []warningSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelBoard,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stats = msg.stats
		m.upcoming = msg.upcoming
		m.activity = msg.activity
		m.warnings = msg.warnings
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Known Board ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	boardPanel := m.renderBoardPanel()
	activityPanel := m.renderActivityPanel()
	warningsPanel := m.renderWarningsPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		boardPanel = m.applyPanelStyle(panelBoard, boardPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		warningsPanel = m.applyPanelStyle(panelWarnings, warningsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, boardPanel, activityPanel, warningsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		boardPanel = m.applyPanelStyle(panelBoard, boardPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		warningsPanel = m.applyPanelStyle(panelWarnings, warningsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, boardPanel, activityPanel, warningsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderBoardPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Board"))
	b.WriteString("\n")

	s := m.stats
	if s.Tasks == 0 && s.TaskSets == 0 {
		b.WriteString("  The board is empty.")
		return b.String()
	}

	b.WriteString(pendingStyle.Render(fmt.Sprintf("  %-14s %d", "Pending", s.Tasks-s.Completed)) + "\n")
	b.WriteString(doneStyle.Render(fmt.Sprintf("  %-14s %d", "Completed", s.Completed)) + "\n")
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Task sets", s.TaskSets))
	b.WriteString(hiddenStyle.Render(fmt.Sprintf("  %-14s %d", "Archived", s.Hidden)) + "\n")
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Episodes", s.Episodes))

	if len(m.upcoming) > 0 {
		b.WriteString("\n  Next deadlines:\n")
		for _, d := range m.upcoming {
			b.WriteString(fmt.Sprintf("  %s  %s\n", deadlineStyle.Render(d.deadline), d.title))
		}
	}
	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Activity (7d)"))
	b.WriteString("\n")

	if m.activity == nil {
		b.WriteString("  No activity available.")
		return b.String()
	}

	a := m.activity
	lines := []struct {
		label string
		value int
	}{
		{"Events", a.EventCount},
		{"Added", a.NodesAdded},
		{"Deleted", a.NodesDeleted},
		{"Completed", a.TasksCompleted},
		{"Reopened", a.TasksReopened},
		{"Imports", a.Imports},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderWarningsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Warnings"))
	b.WriteString("\n")

	if len(m.warnings) == 0 {
		b.WriteString("  No recent warnings.")
		return b.String()
	}

	for _, w := range m.warnings {
		b.WriteString(fmt.Sprintf("  %s %s\n", helpStyle.Render(w.time), warnLevelStyle.Render(w.message)))
	}

	return b.String()
}

// upcomingDeadlines returns up to limit pending, visible tasks with a
// deadline, soonest first. YYYY-MM-DD dates sort correctly as strings.
func upcomingDeadlines(roots []models.Node, limit int) []deadlineSnapshot {
	var out []deadlineSnapshot
	core.Traverse(core.ApplyView(roots, models.ViewPending, false), func(n models.Node) {
		if t, ok := models.AsTask(n); ok && t.Deadline != "" {
			out = append(out, deadlineSnapshot{title: t.Title, deadline: t.Deadline})
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].deadline < out[j].deadline })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if BoardMgr != nil {
		roots := BoardMgr.State().Children
		result.stats = core.Stats(roots)
		result.upcoming = upcomingDeadlines(roots, 5)
	}

	if ActivityCal != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		activity, err := ActivityCal.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading activity: %w", err)
			return result
		}
		result.activity = activity
	}

	if EventLog != nil {
		events, err := EventLog.Read(observability.EventFilter{Level: observability.LevelWarn, Limit: dashboardWarnings})
		if err != nil {
			result.err = fmt.Errorf("loading warnings: %w", err)
			return result
		}
		for i := len(events) - 1; i >= 0; i-- {
			result.warnings = append(result.warnings, warningSnapshot{
				time:    events[i].Time.Local().Format("01-02 15:04"),
				message: events[i].Message,
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive overview of the board and recent activity",
	Long: `Launch an interactive terminal dashboard showing board totals, upcoming
deadlines, activity from the last week and recent warnings.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
