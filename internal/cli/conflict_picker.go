package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/valter-silva-au/known-board/pkg/models"
)

// maxListedConflicts caps how many clashing nodes the picker lists.
const maxListedConflicts = 8

type resolutionChoice struct {
	resolution models.ConflictResolution
	label      string
	help       string
}

var resolutionChoices = []resolutionChoice{
	{models.ResolveOverwrite, "Overwrite", "imported nodes replace existing nodes with the same id"},
	{models.ResolveKeepOld, "Keep existing", "imported nodes whose id already exists are skipped"},
	{models.ResolveRegenerate, "Import as copies", "clashing imported nodes get fresh ids"},
}

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)
	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	pickerHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// conflictPickerModel asks how to resolve id conflicts during a merge.
type conflictPickerModel struct {
	conflicts []models.ConflictItem
	cursor    int
	chosen    models.ConflictResolution
	cancelled bool
}

func newConflictPickerModel(info models.ConflictInfo) conflictPickerModel {
	return conflictPickerModel{conflicts: info.Conflicts}
}

func (m conflictPickerModel) Init() tea.Cmd {
	return nil
}

func (m conflictPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(resolutionChoices)) % len(resolutionChoices)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(resolutionChoices)
	case "1", "2", "3":
		m.cursor = int(key.String()[0] - '1')
		m.chosen = resolutionChoices[m.cursor].resolution
		return m, tea.Quit
	case "enter":
		m.chosen = resolutionChoices[m.cursor].resolution
		return m, tea.Quit
	}
	return m, nil
}

func (m conflictPickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(fmt.Sprintf(" %s already on the board ", plural(len(m.conflicts), "imported node"))))
	b.WriteString("\n\n")

	for i, c := range m.conflicts {
		if i == maxListedConflicts {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.conflicts)-maxListedConflicts))
			break
		}
		b.WriteString(fmt.Sprintf("  %-8s %s  %s\n", c.Type, c.Title, idStyle.Render(c.ID)))
	}
	b.WriteString("\n")

	for i, choice := range resolutionChoices {
		line := fmt.Sprintf("%d. %-17s %s", i+1, choice.label, pickerHelpStyle.Render(choice.help))
		if i == m.cursor {
			b.WriteString(pickerCursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + pickerHelpStyle.Render("↑/↓: choose | enter: import | q: cancel"))
	return b.String()
}

// interactive reports whether both stdin and stdout are terminals. Tests
// replace it.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// pickResolution runs the picker on the terminal. It returns ResolveNone when
// the user cancels.
func pickResolution(info models.ConflictInfo, out io.Writer) (models.ConflictResolution, error) {
	p := tea.NewProgram(newConflictPickerModel(info), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return models.ResolveNone, fmt.Errorf("running conflict picker: %w", err)
	}
	m, ok := final.(conflictPickerModel)
	if !ok || m.cancelled {
		return models.ResolveNone, nil
	}
	return m.chosen, nil
}
