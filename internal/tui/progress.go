package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ProgressMsg reports simulation progress.
type ProgressMsg struct {
	Completed int
	Total     int
}

// DoneMsg signals that the simulation finished.
type DoneMsg struct{}

// ErrMsg signals that the simulation failed.
type ErrMsg struct {
	Err error
}

// ProgressModel is a minimal Bubble Tea model that tracks a long-running
// simulation. Pressing q or ctrl+c invokes the cancel callback; the
// simulation then winds down on its own and sends DoneMsg.
type ProgressModel struct {
	title     string
	bar       progress.Model
	completed int
	total     int
	cancel    func()
	cancelled bool
	done      bool
	err       error
}

// NewProgressModel creates a progress model for a run of total units.
func NewProgressModel(title string, total int, cancel func()) ProgressModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50
	return ProgressModel{
		title:  title,
		bar:    bar,
		total:  total,
		cancel: cancel,
	}
}

// Err returns the terminal error, if the run failed.
func (m ProgressModel) Err() error { return m.err }

// Cancelled reports whether the user interrupted the run.
func (m ProgressModel) Cancelled() bool { return m.cancelled }

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.cancelled && m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
			return m, nil
		}

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 70 {
			width = 70
		}
		if width > 10 {
			m.bar.Width = width
		}
		return m, nil

	case ProgressMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done && m.err == nil {
		return ""
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}

	view := titleStyle.Render(m.title) + "\n\n"
	view += m.bar.ViewAs(percent) + "\n"
	view += countStyle.Render(fmt.Sprintf("%d / %d iterations", m.completed, m.total)) + "\n\n"
	switch {
	case m.err != nil:
		view += errStyle.Render("error: "+m.err.Error()) + "\n"
	case m.cancelled:
		view += helpStyle.Render("cancelling, finishing in-flight iterations...") + "\n"
	default:
		view += helpStyle.Render("q to cancel") + "\n"
	}
	return view
}
