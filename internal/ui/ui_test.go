package ui

import (
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, s Selector, keys ...tea.KeyMsg) (Selector, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var m tea.Model
		m, cmd = s.Update(k)
		var ok bool
		s, ok = m.(Selector)
		require.True(t, ok)
	}
	return s, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyJ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
)

func TestSelector(t *testing.T) {
	items := []SelectorItem{
		{ID: "erd1a", Label: "Main"},
		{ID: "erd1b", Label: "Savings", Current: true},
		{ID: "erd1c", Label: "Trading"},
	}

	t.Run("starts on the current item", func(t *testing.T) {
		s, cmd := press(t, NewSelector("Pick", items), keyEnter)
		assert.Equal(t, "erd1b", s.Selected())
		assert.False(t, s.Cancelled())
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})

	t.Run("navigation is clamped", func(t *testing.T) {
		s, _ := press(t, NewSelector("Pick", items), keyDown, keyJ, keyDown, keyEnter)
		assert.Equal(t, "erd1c", s.Selected())

		s, _ = press(t, NewSelector("Pick", items), keyUp, keyUp, keyUp, keyEnter)
		assert.Equal(t, "erd1a", s.Selected())
	})

	t.Run("escape cancels", func(t *testing.T) {
		s, _ := press(t, NewSelector("Pick", items), keyDown, keyEsc)
		assert.True(t, s.Cancelled())
		assert.Equal(t, "", s.Selected())
		assert.Empty(t, s.View())
	})

	t.Run("empty list", func(t *testing.T) {
		s, _ := press(t, NewSelector("Pick", nil), keyEnter)
		assert.Equal(t, "", s.Selected())
	})

	t.Run("view marks the active item", func(t *testing.T) {
		view := NewSelector("Pick an account", items).View()
		assert.Contains(t, view, "Pick an account")
		assert.Contains(t, view, "Savings")
		assert.Contains(t, view, "(active)")
	})
}

func TestShortAddress(t *testing.T) {
	addr := "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th"
	assert.Equal(t, "erd1qyu5wt…ycr6th", ShortAddress(addr))
	assert.Equal(t, "erd1short", ShortAddress("erd1short"))
}

func TestError(t *testing.T) {
	assert.Empty(t, Error(nil))
	out := Error(fmt.Errorf("send: %w", errors.New("boom")))
	assert.Contains(t, out, "Send: boom")
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(fmt.Errorf("pick: %w", ErrCancelled)))
	assert.False(t, IsCancelled(errors.New("other")))
}
