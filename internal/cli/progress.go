package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/service"
)

const pollInterval = 100 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

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

// tickMsg triggers reading the generation state
type tickMsg time.Time

// progressModel is the bubbletea model for a running generation.
type progressModel struct {
	svc       *service.GenerationService
	mapID     string
	state     service.MapState
	progress  progress.Model
	theme     Theme
	done      bool
	cancelled bool
	err       error
}

func newProgressModel(svc *service.GenerationService, mapID string) progressModel {
	return progressModel{
		svc:   svc,
		mapID: mapID,
		state: svc.State(mapID),
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.progress.Init())
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.svc.Cancel(m.mapID)
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}

	case tickMsg:
		m.state = m.svc.State(m.mapID)
		switch m.state.Status {
		case models.StatusCompleted:
			m.done = true
			return m, tea.Quit
		case models.StatusFailed:
			m.done = true
			m.err = fmt.Errorf("%s", m.state.Error)
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	var pct float64
	if m.state.MaxDepth > 0 {
		pct = float64(m.state.Level) / float64(m.state.MaxDepth)
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.state.Status))
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("level %d/%d, %d nodes", m.state.Level, m.state.MaxDepth, m.state.Progress)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m progressModel) finalView() string {
	switch {
	case m.cancelled:
		return m.theme.hintStyle().Render("\nGeneration cancelled.\n")
	case m.err != nil:
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Generation failed: %s\n", m.err))
	default:
		return m.theme.completedStyle().Render(
			fmt.Sprintf("✓ Version %d published (%d nodes)\n\n", m.state.Version, m.state.Progress))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunGenerationProgress shows a progress display until the map's running
// generation finishes. Cancelling from the keyboard cancels the generation.
func RunGenerationProgress(svc *service.GenerationService, mapID string) error {
	p := tea.NewProgram(newProgressModel(svc, mapID))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	// The generation may still be unwinding after a cancel.
	svc.Wait()

	if m, ok := finalModel.(progressModel); ok {
		if m.cancelled {
			return fmt.Errorf("generation of %q cancelled", m.mapID)
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}
