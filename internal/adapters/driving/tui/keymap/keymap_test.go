package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	k := DefaultKeyMap()

	assert.Equal(t, "cancel", k.Cancel.Help().Desc)
	assert.Equal(t, "quit", k.Quit.Help().Desc)
	assert.Equal(t, []string{"ctrl+c", "esc"}, k.Cancel.Keys())
}

func TestMatches(t *testing.T) {
	k := DefaultKeyMap()

	tests := []struct {
		key    string
		cancel bool
		quit   bool
	}{
		{"ctrl+c", true, true},
		{"esc", true, true},
		{"q", false, true},
		{"enter", false, true},
		{"x", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.cancel, Matches(tt.key, k.Cancel))
			assert.Equal(t, tt.quit, Matches(tt.key, k.Quit))
		})
	}
}

func TestHelp(t *testing.T) {
	k := DefaultKeyMap()

	assert.Len(t, k.RunningHelp(), 1)
	assert.Len(t, k.FinishedHelp(), 1)
}
