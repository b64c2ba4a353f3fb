package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func pressAll(m tea.Model, keys ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(k)
	}
	return m, cmd
}

func TestMenu_DigitSelects(t *testing.T) {
	tests := []struct {
		key  string
		want Choice
	}{
		{"1", ChoiceIndex},
		{"2", ChoiceCount},
		{"3", ChoiceDelete},
		{"4", ChoiceChat},
		{"5", ChoiceExit},
		{"q", ChoiceExit},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, cmd := NewMenu().Update(runes(tt.key))
			assert.Equal(t, tt.want, m.(MenuModel).Selected())
			assert.NotNil(t, cmd)
		})
	}
}

func TestMenu_ArrowsAndEnter(t *testing.T) {
	m, _ := pressAll(NewMenu(),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
	)
	assert.Equal(t, ChoiceNone, m.(MenuModel).Selected())
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ChoiceDelete, m.(MenuModel).Selected())
	assert.NotNil(t, cmd)
}

func TestMenu_CursorWraps(t *testing.T) {
	m, _ := NewMenu().Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ChoiceExit, m.(MenuModel).Selected())
}

func TestMenu_CtrlCExits(t *testing.T) {
	m, _ := NewMenu().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, ChoiceExit, m.(MenuModel).Selected())
}

func TestMenu_IgnoresOtherKeys(t *testing.T) {
	m, cmd := NewMenu().Update(runes("x"))
	assert.Equal(t, ChoiceNone, m.(MenuModel).Selected())
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Start RAG chat")
}

func TestChoice_String(t *testing.T) {
	assert.Equal(t, "Index documents", ChoiceIndex.String())
	assert.Equal(t, "Exit", ChoiceExit.String())
	assert.Equal(t, "None", ChoiceNone.String())
}
