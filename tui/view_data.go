// view_data.go shows the raw backend data behind the last answer as
// plain-text tables, one per data type.
package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/paiERP/erp"
)

const maxCellWidth = 28

type DataView struct {
	viewport *Viewport
	data     map[string]any
	width    int
	height   int
}

func NewDataView() *DataView {
	return &DataView{viewport: NewViewport(80, 20)}
}

func (v *DataView) Name() string { return "Data" }

func (v *DataView) WantsTextInput() bool { return false }

func (v *DataView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-1)
}

func (v *DataView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "↑/↓ j/k", Desc: "scroll"},
		{Key: "←/→ h/l", Desc: "pan"},
		{Key: "g/G", Desc: "top/bottom"},
	}
}

func (v *DataView) Init() tea.Cmd {
	v.viewport.SetContentLines(v.render())
	return nil
}

// SetAnswerData takes the data payload of an enriched answer.
func (v *DataView) SetAnswerData(data any) {
	payload, _ := normalize(data).(map[string]any)
	backend, _ := payload["netSuiteData"].(map[string]any)
	v.data = backend
	v.viewport.SetContentLines(v.render())
	v.viewport.Home()
}

func (v *DataView) Update(msg tea.Msg) (View, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "up", "k":
		v.viewport.ScrollUp(1)
	case "down", "j":
		v.viewport.ScrollDown(1)
	case "left", "h":
		v.viewport.ScrollLeft(4)
	case "right", "l":
		v.viewport.ScrollRight(4)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "g":
		v.viewport.Home()
	case "G":
		v.viewport.End()
	}
	return v, nil
}

func (v *DataView) render() []string {
	if len(v.data) == 0 {
		return []string{"No backend data yet. Ask a question in the Chat tab."}
	}

	types := make([]string, 0, len(v.data))
	for k := range v.data {
		types = append(types, k)
	}
	sort.Strings(types)

	var lines []string
	for _, dt := range types {
		lines = append(lines, "== "+dt+" ==")
		switch val := v.data[dt].(type) {
		case []any:
			lines = append(lines, table(rows(val))...)
		case map[string]any:
			if msg, ok := val["error"].(string); ok && msg == erp.FetchFailedMessage {
				lines = append(lines, "! "+msg)
			} else {
				lines = append(lines, table([]map[string]any{val})...)
			}
		default:
			lines = append(lines, fmt.Sprint(val))
		}
		lines = append(lines, "")
	}
	return lines
}

// table renders rows with a column per key, in sorted key order.
func table(data []map[string]any) []string {
	if len(data) == 0 {
		return []string{"(no rows)"}
	}

	colSet := map[string]bool{}
	for _, r := range data {
		for k := range r {
			colSet[k] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	cells := make([][]string, len(data))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len([]rune(c))
	}
	for ri, r := range data {
		cells[ri] = make([]string, len(cols))
		for ci, c := range cols {
			s := cell(r[c])
			cells[ri][ci] = s
			widths[ci] = max(widths[ci], len([]rune(s)))
		}
	}

	line := func(values []string) string {
		parts := make([]string, len(values))
		for i, s := range values {
			parts[i] = s + strings.Repeat(" ", widths[i]-len([]rune(s)))
		}
		return strings.Join(parts, " │ ")
	}
	seps := make([]string, len(cols))
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}

	out := []string{line(cols), strings.Join(seps, "─┼─")}
	for _, r := range cells {
		out = append(out, line(r))
	}
	return out
}

func cell(v any) string {
	var s string
	switch n := v.(type) {
	case nil:
		s = ""
	case float64:
		if n == float64(int64(n)) {
			s = fmt.Sprintf("%d", int64(n))
		} else {
			s = fmt.Sprintf("%.2f", n)
		}
	default:
		s = fmt.Sprint(n)
	}
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

func (v *DataView) View() string {
	return v.viewport.Render()
}
