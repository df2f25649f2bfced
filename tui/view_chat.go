// view_chat.go is the chat view.
//
// Questions run through the assistant in a command. The two-phase stream
// is delivered as StreamUpdateMsg values read one at a time from a channel,
// followed by a single AnswerMsg that settles the pending bubble.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/chat"
)

type ChatView struct {
	asst      *assistant.Assistant
	session   *chat.Session
	viewport  *Viewport
	input     string
	loading   bool
	exportDir string // empty disables Ctrl+S
	width     int
	height    int
}

func NewChatView(asst *assistant.Assistant, exportDir string) *ChatView {
	vp := NewViewport(80, 20)
	vp.SetWrap(true)
	return &ChatView{
		asst:      asst,
		session:   chat.NewSession(),
		viewport:  vp,
		exportDir: exportDir,
	}
}

func (v *ChatView) Name() string { return "Chat" }

func (v *ChatView) WantsTextInput() bool { return true }

func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-3)
	v.refresh()
}

func (v *ChatView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "ask"},
		{Key: "Ctrl+L", Desc: "clear"},
		{Key: "Ctrl+S", Desc: "export"},
		{Key: "PgUp/PgDn", Desc: "scroll"},
	}
}

func (v *ChatView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case StreamUpdateMsg:
		v.session.Transcript.Update(msg.MessageID, func(m *chat.Message) {
			m.Content = msg.Response.Summary
			m.Insights = msg.Response.Insights
			m.IsLoading = msg.Response.IsLoading != nil && *msg.Response.IsLoading
		})
		v.refresh()
		return v, waitForStream(msg.next)

	case AnswerMsg:
		v.loading = false
		v.session.Transcript.Update(msg.MessageID, func(m *chat.Message) {
			chat.Settle(m, msg.Response, msg.Err)
		})
		v.refresh()
		return v, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			return v, statusCmd("export failed: " + msg.Err.Error())
		}
		return v, statusCmd("exported to " + msg.Path)
	}

	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.ask()
	case "ctrl+l":
		v.session.Transcript.Clear()
		v.refresh()
	case "ctrl+s":
		return v, v.export()
	case "ctrl+k":
		v.viewport.ScrollUp(1)
	case "ctrl+j":
		v.viewport.ScrollDown(1)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "backspace":
		if r := []rune(v.input); len(r) > 0 {
			v.input = string(r[:len(r)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
	}
	return v, nil
}

func (v *ChatView) ask() tea.Cmd {
	text := strings.TrimSpace(v.input)
	if text == "" || v.loading {
		return nil
	}
	if res := v.asst.Validate(text); !res.Valid {
		return statusCmd(strings.Join(res.Errors, "; "))
	}

	v.input = ""
	v.loading = true
	v.session.Transcript.Append(chat.NewMessage(chat.RoleUser, text))
	pending := chat.NewMessage(chat.RoleAssistant, "")
	pending.IsLoading = true
	v.session.Transcript.Append(pending)
	v.refresh()

	// Two stream updates plus the answer; the goroutine never blocks.
	ch := make(chan tea.Msg, 3)
	asst, providerID := v.asst, v.session.ProviderID
	userContext := map[string]any{"sessionId": v.session.ID}
	go func() {
		defer close(ch)
		resp, err := asst.ProcessStream(context.Background(), text, userContext, providerID, func(update ai.Response) {
			ch <- StreamUpdateMsg{MessageID: pending.ID, Response: update, next: ch}
		})
		ch <- AnswerMsg{MessageID: pending.ID, Response: resp, Err: err}
	}()
	return waitForStream(ch)
}

func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (v *ChatView) export() tea.Cmd {
	if v.exportDir == "" {
		return statusCmd("export is disabled in settings")
	}
	msgs := v.session.Transcript.Messages()
	dir := v.exportDir
	return func() tea.Msg {
		path := filepath.Join(dir, chat.ExportFilename(time.Now()))
		f, err := os.Create(path)
		if err != nil {
			return ExportDoneMsg{Err: err}
		}
		defer f.Close()
		if err := chat.Export(f, msgs, nil); err != nil {
			return ExportDoneMsg{Err: err}
		}
		return ExportDoneMsg{Path: path}
	}
}

func statusCmd(s string) tea.Cmd {
	return func() tea.Msg { return StatusMsg(s) }
}

func (v *ChatView) refresh() {
	v.viewport.SetContentLines(v.renderChat())
	v.viewport.End()
}

func (v *ChatView) renderChat() []string {
	msgs := v.session.Transcript.Messages()
	if len(msgs) == 0 {
		return []string{
			StyleTitle.Render("💬 ERP Assistant"),
			"",
			"Ask about your business data:",
			"  • What's our cash flow this quarter?",
			"  • Who are our top customers?",
			"  • Which items need reordering?",
			"  • Show me overdue invoices",
			"",
			StyleDimmed.Render("Type your question and press Enter."),
		}
	}

	var lines []string
	for _, m := range msgs {
		if m.Role == chat.RoleUser {
			lines = append(lines, StyleUser.Render("You: ")+m.Content, "")
			continue
		}
		if m.IsLoading {
			text := m.Content
			if text == "" {
				text = assistant.LoadingSummary
			}
			lines = append(lines, StyleDimmed.Render("  ⏳ "+text))
			for _, in := range m.Insights {
				lines = append(lines, StyleDimmed.Render("     "+in))
			}
			lines = append(lines, "")
			continue
		}

		lines = append(lines, StyleAssistant.Render("AI: "))
		contentStyle := StyleNormal
		if strings.HasPrefix(m.Content, "Error: ") {
			contentStyle = StyleError
		}
		for _, line := range strings.Split(m.Content, "\n") {
			lines = append(lines, "  "+contentStyle.Render(line))
		}
		for _, in := range m.Insights {
			lines = append(lines, "  • "+in)
		}
		for _, viz := range m.Visualizations {
			lines = append(lines, "")
			for _, l := range renderVisualization(viz, v.width-4) {
				lines = append(lines, "  "+l)
			}
		}
		if len(m.Recommendations) > 0 {
			lines = append(lines, "", "  "+StyleBold.Render("Recommendations"))
			for _, r := range m.Recommendations {
				lines = append(lines, "  → "+r)
			}
		}
		lines = append(lines, "")
	}
	return lines
}

func (v *ChatView) View() string {
	prompt := StylePrompt.Render("Ask> ") + v.input + "█"
	if v.loading {
		prompt = StylePrompt.Render("Ask> ") + StyleDimmed.Render("waiting for response...")
	}
	return v.viewport.Render() + "\n" + prompt
}
