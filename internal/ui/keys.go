package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(acquired bool, playing bool) string {
	s := "enter acquire  / find"
	if acquired {
		s += "  x release  space preview  o render"
	}
	if playing {
		s += "  space pause  ←/→ seek"
	}
	s += "  q quit"
	return s
}
