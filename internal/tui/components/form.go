package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form steps through TextFields. Enter on the last field submits when every
// field validates; Esc cancels.
type Form struct {
	title     string
	fields    []TextField
	focusIdx  int
	submitted bool
	cancelled bool
	keys      formKeys
}

type formKeys struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var (
	formTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	formHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func NewForm(title string, fields ...TextField) Form {
	return Form{
		title:  title,
		fields: fields,
		keys: formKeys{
			Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
			Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
			Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
		},
	}
}

func (f Form) Init() tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	return f.fields[0].Focus()
}

func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, f.keys.Cancel):
			f.cancelled = true
			return f, tea.Quit
		case key.Matches(km, f.keys.Prev):
			return f.move(-1)
		case key.Matches(km, f.keys.Next):
			return f.move(1)
		case key.Matches(km, f.keys.Submit):
			if f.focusIdx < len(f.fields)-1 {
				return f.move(1)
			}
			if f.validateAll() {
				f.submitted = true
				return f, tea.Quit
			}
			return f, nil
		}
	}

	if f.focusIdx >= len(f.fields) {
		return f, nil
	}
	var cmd tea.Cmd
	f.fields[f.focusIdx], cmd = f.fields[f.focusIdx].Update(msg)
	return f, cmd
}

// move shifts focus by delta. Moving forward requires the current field
// to validate.
func (f Form) move(delta int) (tea.Model, tea.Cmd) {
	next := f.focusIdx + delta
	if next < 0 || next >= len(f.fields) {
		return f, nil
	}
	if delta > 0 && f.fields[f.focusIdx].Validate() != nil {
		return f, nil
	}
	f.fields = append([]TextField(nil), f.fields...)
	f.fields[f.focusIdx].Blur()
	f.focusIdx = next
	return f, f.fields[f.focusIdx].Focus()
}

func (f *Form) validateAll() bool {
	ok := true
	for i := range f.fields {
		if f.fields[i].Validate() != nil {
			ok = false
		}
	}
	return ok
}

func (f Form) View() string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, field := range f.fields {
		b.WriteString(field.View())
		if i < len(f.fields)-1 {
			b.WriteString("\n\n")
		}
	}
	b.WriteString("\n\n")
	b.WriteString(formHelpStyle.Render("tab next • shift+tab prev • enter submit • esc cancel"))
	return b.String()
}

func (f Form) Submitted() bool { return f.submitted }
func (f Form) Cancelled() bool { return f.cancelled }
func (f Form) Focused() int    { return f.focusIdx }

// Values maps each field's Key to its trimmed value.
func (f Form) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field.Key] = field.Value()
	}
	return values
}
