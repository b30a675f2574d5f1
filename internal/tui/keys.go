package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg returns handled=false when the key belongs to the textarea.
func (m *ChatModel) handleKeyMsg(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.isLoading {
		// Only quitting is allowed while a turn is in flight.
		if msg.String() == "ctrl+c" {
			return tea.Quit, true
		}
		return nil, true
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return tea.Quit, true
	case "shift+enter", "alt+enter":
		return nil, false
	case "enter":
		return m.submit(m.textarea.Value()), true
	}
	return nil, false
}
