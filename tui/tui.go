package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/paiERP/assistant"
)

// Start launches the TUI and blocks until it exits.
func Start(asst *assistant.Assistant, opts Options) error {
	p := tea.NewProgram(NewApp(asst, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
