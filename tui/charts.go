package tui

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/paiERP/ai"
)

const maxChartRows = 10

var sparks = []rune("▁▂▃▄▅▆▇█")

// renderVisualization draws one chart as terminal lines.
func renderVisualization(viz ai.Visualization, width int) []string {
	lines := []string{StyleBold.Render("▌ " + viz.Title)}

	currency := optString(viz.Options, "format") == "currency"
	data := normalize(viz.Data)

	switch viz.Type {
	case ai.ChartKPI:
		if m, ok := data.(map[string]any); ok {
			lines = append(lines, strings.Split(renderKPI(m, currency), "\n")...)
		}
	case ai.ChartBar, ai.ChartPie:
		x := optString(viz.Options, "xAxis")
		if x == "" {
			x = "name"
		}
		y := optString(viz.Options, "yAxis")
		if y == "" {
			y = "value"
		}
		lines = append(lines, renderBars(rows(data), x, y, currency, width)...)
	case ai.ChartLine:
		x := optString(viz.Options, "xAxis")
		if x == "" {
			x = "period"
		}
		ys := optStrings(viz.Options, "yAxis")
		if len(ys) == 0 {
			ys = []string{"revenue", "profit"}
		}
		lines = append(lines, renderLine(rows(data), x, ys, currency)...)
	default:
		lines = append(lines, renderRows(rows(data), width)...)
	}
	return lines
}

// normalize turns typed chart data into plain JSON values.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func rows(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func renderKPI(m map[string]any, currency bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool { return kpiRank(keys[i]) < kpiRank(keys[j]) })

	cards := make([]string, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprint(m[k])
		if f, ok := toFloat(m[k]); ok {
			value = formatNumber(f, currency)
		}
		cards = append(cards, StyleCard.Render(StyleDimmed.Render(label(k))+"\n"+StyleCardValue.Render(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func kpiRank(k string) int {
	switch k {
	case "revenue":
		return 0
	case "profit":
		return 1
	case "cashFlow":
		return 2
	}
	return 3
}

func renderBars(data []map[string]any, x, y string, currency bool, width int) []string {
	if len(data) > maxChartRows {
		data = data[:maxChartRows]
	}
	labelW, peak := 0, 0.0
	for _, r := range data {
		labelW = max(labelW, lipgloss.Width(fmt.Sprint(r[x])))
		if f, ok := toFloat(r[y]); ok {
			peak = math.Max(peak, f)
		}
	}
	barW := width - labelW - 18
	if barW < 5 {
		barW = 5
	}

	lines := make([]string, 0, len(data))
	for _, r := range data {
		f, _ := toFloat(r[y])
		n := 0
		if peak > 0 {
			n = int(math.Round(f / peak * float64(barW)))
		}
		name := fmt.Sprint(r[x])
		lines = append(lines, fmt.Sprintf("%s%s %s %s",
			name, strings.Repeat(" ", labelW-lipgloss.Width(name)),
			StyleBarA.Render(strings.Repeat("█", n)),
			StyleDimmed.Render(formatNumber(f, currency))))
	}
	return lines
}

func renderLine(data []map[string]any, x string, ys []string, currency bool) []string {
	if len(data) == 0 {
		return nil
	}
	styles := []lipgloss.Style{StyleBarA, StyleBarB}
	lines := []string{StyleDimmed.Render(fmt.Sprint(data[0][x]) + " → " + fmt.Sprint(data[len(data)-1][x]))}
	for i, y := range ys {
		values := make([]float64, 0, len(data))
		for _, r := range data {
			f, _ := toFloat(r[y])
			values = append(values, f)
		}
		lo, hi := values[0], values[0]
		for _, f := range values {
			lo, hi = math.Min(lo, f), math.Max(hi, f)
		}
		spark := make([]rune, len(values))
		for j, f := range values {
			idx := 0
			if hi > lo {
				idx = int((f - lo) / (hi - lo) * float64(len(sparks)-1))
			}
			spark[j] = sparks[idx]
		}
		lines = append(lines, fmt.Sprintf("%-10s %s %s", label(y),
			styles[i%len(styles)].Render(string(spark)),
			StyleDimmed.Render(formatNumber(lo, currency)+" … "+formatNumber(hi, currency))))
	}
	return lines
}

func renderRows(data []map[string]any, width int) []string {
	if len(data) > maxChartRows {
		data = data[:maxChartRows]
	}
	lines := make([]string, 0, len(data))
	for _, r := range data {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+fmt.Sprint(r[k]))
		}
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render("• "+strings.Join(parts, "  ")))
	}
	return lines
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// formatNumber renders f with thousands separators, as whole dollars when
// currency is set.
func formatNumber(f float64, currency bool) string {
	neg := f < 0
	s := strconv.FormatInt(int64(math.Round(math.Abs(f))), 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if currency {
		out = "$" + out
	}
	if neg {
		out = "-" + out
	}
	return out
}

// label turns a camelCase key into words.
func label(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteString(strings.ToUpper(string(r)))
			continue
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}

func optStrings(opts map[string]any, key string) []string {
	switch v := opts[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
