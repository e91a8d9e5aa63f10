// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/animerec/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAnswered State = "answered"
	StateError    State = "error"
)

// Bar displays the mode, index size and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	mode    string
	entries int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		mode:   "recommend",
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	parts := []string{"mode: " + b.mode}
	if b.entries > 0 {
		parts = append(parts, fmt.Sprintf("%d indexed chunks", b.entries))
	}
	text := strings.Join(parts, " | ")

	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render(text + " | working...")
	case StateError:
		return b.styles.Error.Render(text)
	case StateAnswered:
		return b.styles.Success.Render(text)
	default:
		return b.styles.Muted.Render(text)
	}
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateAnswered {
		bindings = b.keymap.ResultsHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMode sets the displayed mode name.
func (b *Bar) SetMode(mode string) {
	b.mode = mode
}

// SetEntries sets the number of indexed chunks shown.
func (b *Bar) SetEntries(n int) {
	b.entries = n
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
