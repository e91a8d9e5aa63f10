package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_DefaultView(t *testing.T) {
	b := NewBar(nil, nil)

	out := b.View()
	assert.Equal(t, StateReady, b.State())
	assert.Contains(t, out, "mode: recommend")
	assert.Contains(t, out, "enter: ask")
	assert.NotContains(t, out, "indexed chunks")
}

func TestBar_States(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetEntries(120)
	b.SetMode("search")

	b.SetState(StateThinking)
	assert.Contains(t, b.View(), "working...")

	b.SetState(StateAnswered)
	out := b.View()
	assert.Contains(t, out, "120 indexed chunks")
	assert.Contains(t, out, "mode: search")
	assert.Contains(t, out, "esc: clear")
}
