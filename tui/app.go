// app.go is the top-level Bubble Tea model that orchestrates all views.
//
// Key design decisions:
//   - Three tabs: Chat, Data and Settings, switched with Tab/Shift+Tab or
//     F1-F3
//   - Answers are routed to both the chat and the data view
//   - Help overlay (`?`) toggled on/off outside text input
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/config"
)

const appVersion = "0.1.0"

// Tab indices.
const (
	TabChat = iota
	TabData
	TabSettings
)

// App is the root Bubble Tea model.
type App struct {
	asst    *assistant.Assistant
	backend string

	views     []View
	chatView  *ChatView
	dataView  *DataView
	activeTab int

	width     int
	height    int
	showHelp  bool
	statusMsg string
}

// Options configure the app.
type Options struct {
	Settings  *config.Settings // may be nil
	Backend   string           // shown in the header
	ExportDir string
}

// NewApp creates the application on the chat tab.
func NewApp(asst *assistant.Assistant, opts Options) *App {
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}
	if opts.Settings != nil && !opts.Settings.Features.ExportEnabled {
		exportDir = ""
	}
	a := &App{
		asst:     asst,
		backend:  opts.Backend,
		chatView: NewChatView(asst, exportDir),
		dataView: NewDataView(),
	}
	a.views = []View{a.chatView, a.dataView, NewSettingsView(asst, opts.Settings)}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.views[a.activeTab].Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Header(1) + tab bar(1) + status(1) + borders(2)
		contentW := a.width - 2
		viewH := a.height - 5
		for _, v := range a.views {
			v.SetSize(contentW, viewH)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil

	case StreamUpdateMsg, ExportDoneMsg:
		return a, a.forward(a.chatView, msg)

	case AnswerMsg:
		if msg.Err == nil {
			a.dataView.SetAnswerData(msg.Response.Data)
		}
		return a, a.forward(a.chatView, msg)
	}

	return a, a.forward(a.views[a.activeTab], msg)
}

func (a *App) forward(v View, msg tea.Msg) tea.Cmd {
	_, cmd := v.Update(msg)
	return cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	textMode := a.views[a.activeTab].WantsTextInput()

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "f1":
		return a.switchTab(TabChat)
	case "f2":
		return a.switchTab(TabData)
	case "f3":
		return a.switchTab(TabSettings)
	case "tab":
		return a.switchTab((a.activeTab + 1) % len(a.views))
	case "shift+tab":
		return a.switchTab((a.activeTab + len(a.views) - 1) % len(a.views))
	}

	if !textMode {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "?":
			a.showHelp = !a.showHelp
			return a, nil
		}
	}

	return a, a.forward(a.views[a.activeTab], msg)
}

func (a *App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if a.views[a.activeTab].WantsTextInput() && a.activeTab != TabChat {
		// Leave a settings field being edited as it is.
		return a, nil
	}
	a.activeTab = idx
	a.showHelp = false
	return a, a.views[a.activeTab].Init()
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	content := a.views[a.activeTab].View()
	if a.showHelp {
		content = a.renderHelp()
	}

	frameHeight := a.height - 5
	if frameHeight < 0 {
		frameHeight = 0
	}
	frame := StyleBorder.
		Width(a.width - 2).
		Height(frameHeight).
		Render(content)

	return a.renderHeader() + "\n" + a.renderTabBar() + "\n" + frame + "\n" + a.renderStatusBar()
}

// renderHeader draws logo, version, active provider and backend.
func (a *App) renderHeader() string {
	left := StyleBold.Render("📊 paiERP") + StyleDimmed.Render(" v"+appVersion)

	provider := StyleWarning.Render("  no AI provider")
	if p, ok := a.asst.ActiveProvider(); ok {
		provider = StyleSuccess.Render(fmt.Sprintf("  ⚡ %s (%s)", p.Name, p.Model))
	}
	content := left + provider
	if a.backend != "" {
		content += StyleDimmed.Render("  ⛁ " + a.backend)
	}

	right := StyleDimmed.Render(fmt.Sprintf("%d×%d", a.width, a.height))
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Width(a.width).
		Render(content + strings.Repeat(" ", gap) + right)
}

func (a *App) renderTabBar() string {
	tabs := make([]string, 0, len(a.views))
	for i, v := range a.views {
		label := fmt.Sprintf("F%d %s", i+1, v.Name())
		if i == a.activeTab {
			tabs = append(tabs, StyleTabActive.Render(label))
		} else {
			tabs = append(tabs, StyleTabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderStatusBar() string {
	if a.statusMsg != "" {
		return StyleStatusBar.Width(a.width).Render(a.statusMsg)
	}

	items := append(a.views[a.activeTab].ShortHelp(),
		KeyBinding{Key: "Tab", Desc: "switch"},
		KeyBinding{Key: "Ctrl+C", Desc: "quit"},
	)
	parts := make([]string, 0, len(items))
	for _, h := range items {
		parts = append(parts, StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
	}
	return StyleStatusBar.Width(a.width).Render(strings.Join(parts, "  │  "))
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("⌨ paiERP Keyboard Shortcuts"),
		StyleHelpKey.Render("Tab / Shift+Tab") + "  Switch between views",
		StyleHelpKey.Render("F1 F2 F3") + "         Chat, Data, Settings",
		StyleHelpKey.Render("?") + "                Toggle this help",
		StyleHelpKey.Render("Ctrl+C") + "           Quit",
		"",
		StyleTitle.Render("Chat"),
		StyleHelpKey.Render("Enter") + "            Ask the question",
		StyleHelpKey.Render("Ctrl+L") + "           Clear the conversation",
		StyleHelpKey.Render("Ctrl+S") + "           Export the conversation as JSON",
		StyleHelpKey.Render("PgUp/PgDn") + "        Scroll",
		"",
		StyleTitle.Render("Settings"),
		StyleHelpKey.Render("←/→") + "              Cycle provider, toggle CORS proxy",
		StyleHelpKey.Render("Enter") + "            Edit field or save",
		"",
		StyleDimmed.Render("Press ? to close"),
	}
	return lipgloss.NewStyle().
		Width(a.width-4).
		Padding(1, 2).
		Render(strings.Join(help, "\n"))
}
