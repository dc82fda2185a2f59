package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner shows a label next to an animated dot while a stage runs.
type Spinner struct {
	model spinner.Model
	label string
	style lipgloss.Style
}

func NewSpinner(label string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	return Spinner{
		model: s,
		label: label,
		style: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

func (s Spinner) Init() tea.Cmd {
	return s.model.Tick
}

// Update advances the animation on tick messages and ignores the rest.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return s, nil
	}
	var cmd tea.Cmd
	s.model, cmd = s.model.Update(tick)
	return s, cmd
}

func (s Spinner) View() string {
	return s.model.View() + " " + s.style.Render(s.label)
}

func (s Spinner) Label() string {
	return s.label
}
