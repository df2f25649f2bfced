// messages.go defines Bubble Tea messages used for async communication.
//
// The question pipeline, exports and settings saves run in commands and
// report back through these types so the UI never blocks.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/paiERP/ai"
)

// StreamUpdateMsg carries one two-phase update for the pending answer.
type StreamUpdateMsg struct {
	MessageID string
	Response  ai.Response

	next <-chan tea.Msg
}

// AnswerMsg is sent when the pipeline finishes for a question.
type AnswerMsg struct {
	MessageID string
	Response  ai.Response
	Err       error
}

// ExportDoneMsg is sent when a transcript export completes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// SettingsSavedMsg is sent when provider settings have been applied.
type SettingsSavedMsg struct {
	Err error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string
