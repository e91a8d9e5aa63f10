package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("enter", km.Submit))
	assert.True(t, Matches("tab", km.ToggleMode))
	assert.True(t, Matches("esc", km.Clear))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.False(t, Matches("q", km.Quit))
}

func TestKeyMap_HelpSets(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 4)
	assert.Len(t, km.ResultsHelp(), 4)
	for _, b := range km.ShortHelp() {
		assert.NotEmpty(t, b.Help().Desc)
	}
}
