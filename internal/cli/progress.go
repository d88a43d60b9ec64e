package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/anhoffmann/deepscout/internal/research"
	"github.com/anhoffmann/deepscout/internal/workflow"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 250 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the run progress.
type tickMsg time.Time

// runDoneMsg carries the finished research report.
type runDoneMsg struct {
	report *research.Report
	err    error
}

// researchModel is the bubbletea model for a deep-research run.
type researchModel struct {
	orch     *research.Orchestrator
	query    string
	snapshot research.ProgressSnapshot
	progress progress.Model
	theme    Theme
	report   *research.Report
	done     bool
	quitting bool
	err      error
}

func newResearchModel(orch *research.Orchestrator, query string) researchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return researchModel{
		orch:     orch,
		query:    query,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m researchModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m researchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snapshot = m.orch.Progress()
		return m, tickCmd()

	case runDoneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		m.snapshot = m.orch.Progress()
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m researchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m researchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	snap := m.snapshot
	if snap.Total == 0 {
		return m.theme.statusStyle().Render("Planning research...") + "\n"
	}

	pct := float64(snap.Done) / float64(snap.Total)
	status := m.theme.statusStyle().Render("[researching]")
	counts := fmt.Sprintf("%d/%d steps", snap.Done, snap.Total)

	running := append([]string(nil), snap.Running...)
	sort.Strings(running)
	activity := ""
	if len(running) > 0 {
		activity = m.theme.hintStyle().Render("running: " + strings.Join(running, ", "))
	}

	hint := m.theme.hintStyle().Render("Press Ctrl+C to abort")

	return fmt.Sprintf("%s %s %s\n%s\n%s\n", status, m.progress.ViewAs(pct), counts, activity, hint)
}

func (m researchModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Research failed: %s\n", m.err))
	}

	if m.report != nil {
		var sb strings.Builder
		sb.WriteString(m.theme.completedStyle().Render("✓ Research complete") + "\n\n")
		fmt.Fprintf(&sb, "  Status:             %s\n", m.report.Workflow.Status)
		fmt.Fprintf(&sb, "  Sources used:       %d\n", m.report.SourcesUsed)
		fmt.Fprintf(&sb, "  Subtasks completed: %d\n", m.report.SubtasksCompleted)
		if len(m.report.Workflow.Errors) > 0 {
			sb.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("\nStep errors (%d):\n", len(m.report.Workflow.Errors))))
			ids := make([]string, 0, len(m.report.Workflow.Errors))
			for id := range m.report.Workflow.Errors {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(&sb, "  • %s: %s\n", id, m.report.Workflow.Errors[id])
			}
		}
		return sb.String()
	}

	return m.theme.completedStyle().Render("✓ Research complete\n")
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runResearchProgress runs the interactive progress UI while fn executes in
// the background. Returns the finished report or the run error.
func runResearchProgress(orch *research.Orchestrator, query string, fn func() (*research.Report, error)) (*research.Report, error) {
	p := tea.NewProgram(newResearchModel(orch, query))

	go func() {
		report, err := fn()
		p.Send(runDoneMsg{report: report, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(researchModel)
	if !ok {
		return nil, nil
	}
	if m.quitting {
		return nil, fmt.Errorf("research aborted")
	}
	return m.report, m.err
}

// statusGlyph maps a step status to a one-character marker for plain output.
func statusGlyph(st workflow.StepStatus) string {
	switch st {
	case workflow.StepSucceeded:
		return "✓"
	case workflow.StepFailed:
		return "✗"
	case workflow.StepSkipped:
		return "-"
	default:
		return "·"
	}
}
