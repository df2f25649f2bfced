// view_settings.go edits AI provider settings.
//
// Up/Down move between fields, Enter starts and stops editing a text
// field, Left/Right cycle the provider and flip the CORS toggle. Saving
// applies the provider to the live registry, makes it active and writes
// the settings file.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/config"
)

const (
	fieldProvider = iota
	fieldAPIKey
	fieldModel
	fieldEndpoint // Azure only
	fieldCORS
	fieldSave
	fieldCount // sentinel
)

var fieldLabels = [fieldCount]string{
	fieldProvider: "Provider",
	fieldAPIKey:   "API Key",
	fieldModel:    "Model",
	fieldEndpoint: "Endpoint",
	fieldCORS:     "CORS Proxy",
	fieldSave:     "Save",
}

const labelWidth = 16

type SettingsView struct {
	asst     *assistant.Assistant
	settings *config.Settings

	providers []ai.ProviderConfig
	current   int
	fields    [fieldCount]string
	cors      bool

	focus   int
	editing bool
	err     error
	saved   bool
	width   int
	height  int
}

func NewSettingsView(asst *assistant.Assistant, settings *config.Settings) *SettingsView {
	return &SettingsView{asst: asst, settings: settings}
}

func (v *SettingsView) Name() string { return "Settings" }

func (v *SettingsView) WantsTextInput() bool { return v.editing }

func (v *SettingsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *SettingsView) ShortHelp() []KeyBinding {
	if v.editing {
		return []KeyBinding{{Key: "Enter/Esc", Desc: "done"}}
	}
	return []KeyBinding{
		{Key: "↑/↓", Desc: "field"},
		{Key: "←/→", Desc: "change"},
		{Key: "Enter", Desc: "edit/save"},
	}
}

// Init reloads the form from the registry.
func (v *SettingsView) Init() tea.Cmd {
	v.providers = v.asst.Providers()
	v.current = 0
	if active, ok := v.asst.ActiveProvider(); ok {
		for i, p := range v.providers {
			if p.ID == active.ID {
				v.current = i
			}
		}
	}
	v.cors = v.asst.UseCORSProxy()
	v.loadProvider()
	return nil
}

func (v *SettingsView) loadProvider() {
	if len(v.providers) == 0 {
		return
	}
	p := v.providers[v.current]
	v.fields[fieldProvider] = p.Name
	v.fields[fieldAPIKey] = p.APIKey
	v.fields[fieldModel] = p.Model
	v.fields[fieldEndpoint] = p.BaseURL
	v.err = nil
	v.saved = false
}

func (v *SettingsView) isAzure() bool {
	vendor, _ := ai.VendorOf(v.fields[fieldProvider])
	return vendor == ai.VendorAzure
}

func (v *SettingsView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case SettingsSavedMsg:
		v.err = msg.Err
		v.saved = msg.Err == nil
		return v, nil
	case tea.KeyMsg:
		if v.editing {
			return v.handleEditing(msg)
		}
		return v.handleNavigation(msg)
	}
	return v, nil
}

func (v *SettingsView) handleNavigation(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.move(-1)
	case "down", "j":
		v.move(1)
	case "left", "h":
		v.change(-1)
	case "right", "l":
		v.change(1)
	case "enter":
		switch v.focus {
		case fieldAPIKey, fieldModel, fieldEndpoint:
			v.editing = true
		case fieldCORS:
			v.cors = !v.cors
		case fieldSave:
			return v, v.save()
		}
	}
	return v, nil
}

func (v *SettingsView) move(dir int) {
	v.focus = (v.focus + dir + fieldCount) % fieldCount
	if v.focus == fieldEndpoint && !v.isAzure() {
		v.focus = (v.focus + dir + fieldCount) % fieldCount
	}
}

func (v *SettingsView) change(dir int) {
	switch v.focus {
	case fieldProvider:
		if len(v.providers) == 0 {
			return
		}
		v.current = (v.current + dir + len(v.providers)) % len(v.providers)
		v.loadProvider()
	case fieldCORS:
		v.cors = !v.cors
	}
}

func (v *SettingsView) handleEditing(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		v.editing = false
	case "backspace":
		if r := []rune(v.fields[v.focus]); len(r) > 0 {
			v.fields[v.focus] = string(r[:len(r)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			v.fields[v.focus] += string(msg.Runes)
		}
	}
	return v, nil
}

// save applies the form to the registry and, when loaded from a file, to
// the settings.
func (v *SettingsView) save() tea.Cmd {
	if len(v.providers) == 0 {
		return nil
	}
	p := v.providers[v.current]
	p.APIKey = strings.TrimSpace(v.fields[fieldAPIKey])
	p.Model = strings.TrimSpace(v.fields[fieldModel])
	p.BaseURL = strings.TrimSpace(v.fields[fieldEndpoint])
	v.providers[v.current] = p

	v.asst.UpdateProvider(p)
	if err := v.asst.SetActiveProvider(p.ID); err != nil {
		return func() tea.Msg { return SettingsSavedMsg{Err: err} }
	}
	v.asst.SetUseCORSProxy(v.cors)

	settings, cors := v.settings, v.cors
	if settings == nil {
		return func() tea.Msg { return SettingsSavedMsg{} }
	}
	return func() tea.Msg {
		if err := settings.ApplyProvider(p); err != nil {
			return SettingsSavedMsg{Err: err}
		}
		if err := settings.SetActive(p.ID); err != nil {
			return SettingsSavedMsg{Err: err}
		}
		settings.UseCORSProxy = cors
		return SettingsSavedMsg{Err: settings.Save()}
	}
}

func (v *SettingsView) View() string {
	inputW := v.width - labelWidth - 6
	if inputW < 10 {
		inputW = 10
	}

	lines := []string{StyleTitle.Render("⚙ AI Provider Settings")}
	lines = append(lines,
		v.renderSelect(fieldProvider),
		v.renderInput(fieldAPIKey, inputW, true),
		v.renderInput(fieldModel, inputW, false),
	)
	if v.isAzure() {
		lines = append(lines, v.renderInput(fieldEndpoint, inputW, false))
	}
	lines = append(lines, v.renderToggle(fieldCORS, v.cors), "", v.renderButton(fieldSave), "")

	switch {
	case v.err != nil:
		lines = append(lines, StyleError.Render("✗ "+v.err.Error()))
	case v.saved:
		lines = append(lines, StyleSuccess.Render("✓ Settings saved"))
	}
	if v.settings != nil && v.settings.Path() != "" {
		lines = append(lines, StyleDimmed.Render("Settings file: "+v.settings.Path()))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (v *SettingsView) renderLabel(id int) string {
	if v.focus == id {
		return lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(ColorAccent).
			Bold(true).
			Render("▸ " + fieldLabels[id])
	}
	return lipgloss.NewStyle().
		Width(labelWidth).
		Foreground(ColorDim).
		Render(fieldLabels[id])
}

func (v *SettingsView) renderInput(id, inputWidth int, masked bool) string {
	value := v.fields[id]
	if masked {
		value = strings.Repeat("•", len([]rune(value)))
	}
	if v.focus != id {
		return v.renderLabel(id) + " " + StyleDimmed.Render(value)
	}
	cursor := ""
	if v.editing {
		cursor = "█"
	}
	return v.renderLabel(id) + " " + lipgloss.NewStyle().
		Width(inputWidth).
		Foreground(ColorPrimary).
		Render(value+cursor)
}

func (v *SettingsView) renderSelect(id int) string {
	if v.focus == id {
		return v.renderLabel(id) + " " + StyleInputFocused.Render(" ◂ "+v.fields[id]+" ▸ ")
	}
	return v.renderLabel(id) + " " + StyleDimmed.Render(v.fields[id])
}

func (v *SettingsView) renderToggle(id int, on bool) string {
	if on {
		return v.renderLabel(id) + " " + lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Render("● Enabled")
	}
	return v.renderLabel(id) + " " + StyleDimmed.Render("○ Disabled")
}

func (v *SettingsView) renderButton(id int) string {
	if v.focus == id {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorAccent).
			Padding(0, 2).
			Render("⏎ " + fieldLabels[id])
	}
	return lipgloss.NewStyle().
		Foreground(ColorDim).
		Padding(0, 2).
		Render("  " + fieldLabels[id])
}
