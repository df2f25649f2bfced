package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/chat"
	"github.com/DachengChen/paiERP/erp"
	"github.com/DachengChen/paiERP/query"
)

func newTestAssistant() *assistant.Assistant {
	reg := ai.NewRegistry(ai.DefaultProviders())
	return assistant.New(reg, erp.NewExecutor(erp.DemoSource{}))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in       float64
		currency bool
		want     string
	}{
		{0, false, "0"},
		{999, false, "999"},
		{1000, false, "1,000"},
		{2500000, true, "$2,500,000"},
		{-1234.6, true, "-$1,235"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in, tt.currency); got != tt.want {
			t.Errorf("formatNumber(%v, %v) = %q, want %q", tt.in, tt.currency, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	for in, want := range map[string]string{
		"revenue":     "Revenue",
		"cashFlow":    "Cash Flow",
		"totalAmount": "Total Amount",
	} {
		if got := label(in); got != want {
			t.Errorf("label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderVisualization(t *testing.T) {
	tests := []struct {
		name string
		viz  ai.Visualization
		want []string
	}{
		{
			name: "kpi",
			viz: ai.Visualization{
				Type:    ai.ChartKPI,
				Title:   "Financial Overview",
				Data:    map[string]any{"revenue": 2500000, "profit": 450000},
				Options: map[string]any{"format": "currency"},
			},
			want: []string{"Financial Overview", "$2,500,000", "$450,000", "Revenue"},
		},
		{
			name: "bar from typed points",
			viz: ai.Visualization{
				Type:  ai.ChartBar,
				Title: "Top Customers by Revenue",
				Data: []assistant.BarPoint{
					{Name: "Acme Corp", Value: 1000},
					{Name: "Globex", Value: 500},
				},
			},
			want: []string{"Acme Corp", "Globex", "1,000", "█"},
		},
		{
			name: "line",
			viz: ai.Visualization{
				Type:  ai.ChartLine,
				Title: "Financial Trends",
				Data: []assistant.TrendPoint{
					{Period: "2024-Q1", Revenue: 1, Profit: 1},
					{Period: "2024-Q2", Revenue: 3, Profit: 2},
				},
			},
			want: []string{"2024-Q1 → 2024-Q2", "Revenue", "Profit", "▁", "█"},
		},
		{
			name: "table",
			viz: ai.Visualization{
				Type:  ai.ChartTable,
				Title: "Rows",
				Data:  []any{map[string]any{"a": 1}},
			},
			want: []string{"a: 1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := strings.Join(renderVisualization(tt.viz, 80), "\n")
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestTable(t *testing.T) {
	lines := table([]map[string]any{
		{"name": "Acme", "balance": 1500.5},
		{"name": "Globex", "balance": float64(20)},
	})
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "balance") || !strings.Contains(lines[0], "name") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "1500.50") || !strings.Contains(lines[3], "20 ") {
		t.Errorf("rows = %q", lines[2:])
	}
}

func TestDataViewShowsBackendData(t *testing.T) {
	v := NewDataView()
	v.SetSize(120, 40)
	v.SetAnswerData(map[string]any{
		"netSuiteData": erp.Data{
			query.Customers: erp.DemoCustomers(),
			query.Invoices:  erp.FetchError{Message: erp.FetchFailedMessage},
		},
	})
	out := strings.Join(v.render(), "\n")
	for _, want := range []string{"== customers ==", "== invoices ==", "! " + erp.FetchFailedMessage} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestChatViewSettlesStream(t *testing.T) {
	v := NewChatView(newTestAssistant(), t.TempDir())
	v.SetSize(100, 30)

	pending := chat.NewMessage(chat.RoleAssistant, "")
	pending.IsLoading = true
	v.session.Transcript.Append(chat.NewMessage(chat.RoleUser, "cash flow?"))
	v.session.Transcript.Append(pending)
	v.loading = true

	loading := true
	v.Update(StreamUpdateMsg{MessageID: pending.ID, Response: ai.Response{
		Summary:   assistant.LoadingSummary,
		Insights:  []string{assistant.LoadingInsight},
		IsLoading: &loading,
	}})
	msgs := v.session.Transcript.Messages()
	if !msgs[1].IsLoading || msgs[1].Content != assistant.LoadingSummary {
		t.Fatalf("pending = %+v", msgs[1])
	}

	v.Update(AnswerMsg{MessageID: pending.ID, Response: ai.Response{
		Summary:  "Cash is healthy",
		Insights: []string{"up 10%"},
	}})
	msgs = v.session.Transcript.Messages()
	if msgs[1].IsLoading || msgs[1].Content != "Cash is healthy" || v.loading {
		t.Fatalf("settled = %+v", msgs[1])
	}
	if !strings.Contains(strings.Join(v.renderChat(), "\n"), "up 10%") {
		t.Error("insight not rendered")
	}
}

func TestChatViewKeys(t *testing.T) {
	dir := t.TempDir()
	v := NewChatView(newTestAssistant(), dir)
	v.session.Transcript.Append(chat.NewMessage(chat.RoleUser, "hello"))

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("ctrl+s returned no command")
	}
	done, ok := cmd().(ExportDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("export = %+v", done)
	}
	if _, err := os.Stat(done.Path); err != nil || filepath.Dir(done.Path) != dir {
		t.Errorf("export path %q: %v", done.Path, err)
	}

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if v.session.Transcript.Len() != 0 {
		t.Error("ctrl+l did not clear")
	}

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("DROP TABLE x")})
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("invalid question produced no status")
	}
	if _, ok := cmd().(StatusMsg); !ok {
		t.Error("expected a status message")
	}
	if v.session.Transcript.Len() != 0 || v.loading {
		t.Error("invalid question entered the transcript")
	}
}

func TestSettingsViewSave(t *testing.T) {
	asst := newTestAssistant()
	v := NewSettingsView(asst, nil)
	v.SetSize(100, 30)
	v.Init()

	// Cycle to the second provider and type a key.
	v.Update(tea.KeyMsg{Type: tea.KeyRight})
	target := v.providers[v.current]
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !v.WantsTextInput() {
		t.Fatal("enter on API key should start editing")
	}
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sk-test")})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.focus = fieldSave
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	if msg := cmd().(SettingsSavedMsg); msg.Err != nil {
		t.Fatal(msg.Err)
	}

	active, ok := asst.ActiveProvider()
	if !ok || active.ID != target.ID || active.APIKey != "sk-test" {
		t.Errorf("active = %+v", active)
	}
}

func TestAppTabs(t *testing.T) {
	app := NewApp(newTestAssistant(), Options{})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if app.activeTab != TabData {
		t.Fatalf("tab = %d", app.activeTab)
	}
	app.Update(tea.KeyMsg{Type: tea.KeyF3})
	if app.activeTab != TabSettings {
		t.Fatalf("tab = %d", app.activeTab)
	}
	if !strings.Contains(app.View(), "AI Provider Settings") {
		t.Error("settings view not rendered")
	}

	app.Update(AnswerMsg{Response: ai.Response{Data: map[string]any{
		"netSuiteData": erp.Data{query.Customers: erp.DemoCustomers()},
	}}})
	if len(app.dataView.data) != 1 {
		t.Errorf("answer data not routed to data view: %v", app.dataView.data)
	}
}
