package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewQueryInput(t *testing.T) {
	q := NewQueryInput(nil, "Search", "Enter a query...")

	assert.True(t, q.Focused())
	assert.Equal(t, "Search", q.Label())
	assert.Empty(t, q.Value())
	assert.Contains(t, q.View(), "Search:")
}

func TestQueryInput_Typing(t *testing.T) {
	q := NewQueryInput(nil, "Ask", "")

	q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what is a graph")})

	assert.Equal(t, "what is a graph", q.Value())
}

func TestQueryInput_FocusAndReset(t *testing.T) {
	q := NewQueryInput(nil, "Search", "")
	q.SetValue("merge sort")

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())

	q.Reset()
	assert.Empty(t, q.Value())
}

func TestQueryInput_SetWidth(t *testing.T) {
	q := NewQueryInput(nil, "Search", "")

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())

	q.SetWidth(5)
	assert.Equal(t, 5, q.Width())
}

func TestQueryInput_SetLabel(t *testing.T) {
	q := NewQueryInput(nil, "Search", "")
	q.SetLabel("Ask")
	assert.Contains(t, q.View(), "Ask:")
}
