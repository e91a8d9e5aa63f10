package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestQueryInput_TypingAndReset(t *testing.T) {
	q := NewQueryInput(nil)
	assert.True(t, q.Focused())

	q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("mecha")})
	assert.Equal(t, "mecha", q.Value())

	q.Reset()
	assert.Empty(t, q.Value())
}

func TestQueryInput_Label(t *testing.T) {
	q := NewQueryInput(nil)
	assert.Contains(t, q.View(), "Ask:")

	q.SetLabel("Search")
	q.SetWidth(60)
	assert.Equal(t, "Search", q.Label())
	assert.Contains(t, q.View(), "Search:")
}

func TestQueryInput_BlurFocus(t *testing.T) {
	q := NewQueryInput(nil)
	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())
}
