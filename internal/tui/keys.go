package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// PromptKeyMap holds the bindings of single-line text prompts. Printable
// keys, 'q' included, go to the input.
type PromptKeyMap struct {
	Complete key.Binding
	Accept   key.Binding
	Cancel   key.Binding
}

// DefaultPromptKeyMap binds Tab to completion, Enter to accept and
// Esc/Ctrl+C to cancel.
func DefaultPromptKeyMap() PromptKeyMap {
	return PromptKeyMap{
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// HelpText renders the enabled bindings as "key action" pairs.
func (k PromptKeyMap) HelpText() string {
	var parts []string
	for _, b := range []key.Binding{k.Complete, k.Accept, k.Cancel} {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
