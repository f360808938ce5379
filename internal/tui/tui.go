package tui

import (
	"timeline-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the interactive editor for one timeline and blocks until the user quits.
func Run(sess *session.Session, opts Options) error {
	applyColorProfilePreference()
	m := newAppModel(sess, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
