package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextField is a labelled text input addressed by Key inside a Form.
type TextField struct {
	Key       string
	label     string
	input     textinput.Model
	required  bool
	validator func(string) error
	err       error
}

var (
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	inputStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusedInputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	fieldErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func NewTextField(key, label, placeholder string) TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 512
	ti.Width = 48
	return TextField{Key: key, label: label, input: ti}
}

func (t TextField) WithRequired() TextField {
	t.required = true
	return t
}

func (t TextField) WithValidator(fn func(string) error) TextField {
	t.validator = fn
	return t
}

func (t TextField) WithValue(value string) TextField {
	t.input.SetValue(value)
	return t
}

// WithPassword masks the typed characters.
func (t TextField) WithPassword() TextField {
	t.input.EchoMode = textinput.EchoPassword
	t.input.EchoCharacter = '•'
	return t
}

func (t *TextField) Focus() tea.Cmd {
	return t.input.Focus()
}

func (t *TextField) Blur() {
	t.input.Blur()
}

func (t TextField) Update(msg tea.Msg) (TextField, tea.Cmd) {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	if t.err != nil {
		t.err = t.check()
	}
	return t, cmd
}

func (t TextField) View() string {
	var b strings.Builder
	label := t.label
	if t.required {
		label += fieldErrorStyle.Render(" *")
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")

	style := inputStyle
	if t.input.Focused() {
		style = focusedInputStyle
	}
	b.WriteString(style.Render(t.input.View()))

	if t.err != nil {
		b.WriteString("\n")
		b.WriteString(fieldErrorStyle.Render(t.err.Error()))
	}
	return b.String()
}

func (t TextField) Value() string {
	return strings.TrimSpace(t.input.Value())
}

// Validate records and returns the field's current error, if any.
func (t *TextField) Validate() error {
	t.err = t.check()
	return t.err
}

func (t TextField) check() error {
	value := t.Value()
	if t.required && value == "" {
		return ErrFieldRequired
	}
	if t.validator != nil && value != "" {
		return t.validator(value)
	}
	return nil
}

// ErrFieldRequired is reported for an empty required field.
var ErrFieldRequired = fieldError("this field is required")

type fieldError string

func (e fieldError) Error() string { return string(e) }
