package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Option is one choice offered by a Selector.
type Option struct {
	Label       string
	Description string
	Value       string
}

// Selector picks one Option with the arrow keys and Enter.
type Selector struct {
	title     string
	options   []Option
	cursor    int
	submitted bool
	cancelled bool
	keys      selectorKeys
}

type selectorKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var (
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	unselectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	descriptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(4)
)

func NewSelector(title string, options []Option) Selector {
	return Selector{
		title:   title,
		options: options,
		keys: selectorKeys{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

func (s Selector) Init() tea.Cmd { return nil }

func (s Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(km, s.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(km, s.keys.Down):
		if s.cursor < len(s.options)-1 {
			s.cursor++
		}
	case key.Matches(km, s.keys.Select):
		s.submitted = len(s.options) > 0
		return s, tea.Quit
	case key.Matches(km, s.keys.Quit):
		s.cancelled = true
		return s, tea.Quit
	}
	return s, nil
}

func (s Selector) View() string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(s.title))
	b.WriteString("\n\n")
	for i, opt := range s.options {
		if i == s.cursor {
			b.WriteString(selectedStyle.Render("● " + opt.Label))
		} else {
			b.WriteString(unselectedStyle.Render("  ○ " + opt.Label))
		}
		b.WriteString("\n")
		if opt.Description != "" {
			b.WriteString(descriptionStyle.Render(opt.Description))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(formHelpStyle.Render("↑/↓ navigate • enter select • q quit"))
	return b.String()
}

func (s Selector) Submitted() bool { return s.submitted }
func (s Selector) Cancelled() bool { return s.cancelled }

// Value returns the chosen option's Value, or "" before submission.
func (s Selector) Value() string {
	if !s.submitted {
		return ""
	}
	return s.options[s.cursor].Value
}
