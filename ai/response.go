package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ChartType is the closed set of chart kinds a visualization may take.
type ChartType string

const (
	ChartLine  ChartType = "line"
	ChartBar   ChartType = "bar"
	ChartPie   ChartType = "pie"
	ChartTable ChartType = "table"
	ChartKPI   ChartType = "kpi"
)

// Visualization is a chart descriptor produced by a vendor or the enricher.
type Visualization struct {
	Type    ChartType      `json:"type"`
	Data    any            `json:"data"`
	Options map[string]any `json:"options,omitempty"`
	Title   string         `json:"title"`
}

// Response is the normalized reply shape shared by every vendor.
type Response struct {
	Data            any             `json:"data"`
	Insights        []string        `json:"insights"`
	Visualizations  []Visualization `json:"visualizations"`
	Summary         string          `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	IsLoading       *bool           `json:"isLoading,omitempty"`
}

// Fallback wraps raw text as a response: the text becomes both the
// summary and the only insight.
func Fallback(raw string) Response {
	return Response{
		Data:            map[string]any{},
		Insights:        []string{raw},
		Visualizations:  []Visualization{},
		Summary:         raw,
		Recommendations: []string{},
	}
}

// ParseResponse extracts the JSON object embedded in a vendor reply. It
// takes the span from the first '{' to the last '}'. Replies without a
// parsable span degrade to Fallback; it never fails.
func ParseResponse(raw string) Response {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Fallback(raw)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return Fallback(raw)
	}

	resp := Response{
		Data:            map[string]any{},
		Insights:        []string{},
		Visualizations:  []Visualization{},
		Recommendations: []string{},
	}
	// Fields with an unexpected type keep their empty default. List fields
	// are decoded per element so one bad entry does not drop the rest.
	if v, ok := fields["data"]; ok {
		var data any
		if json.Unmarshal(v, &data) == nil && data != nil {
			resp.Data = data
		}
	}
	resp.Insights = decodeStrings(fields["insights"])
	resp.Visualizations = decodeVisualizations(fields["visualizations"])
	decodeInto(fields["summary"], &resp.Summary)
	resp.Recommendations = decodeStrings(fields["recommendations"])

	if resp.Insights == nil {
		resp.Insights = []string{}
	}
	if resp.Visualizations == nil {
		resp.Visualizations = []Visualization{}
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}
	return resp
}

func decodeInto[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

// decodeStrings keeps string elements as-is and renders other scalars with
// fmt.Sprint. Nulls are skipped.
func decodeStrings(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case nil:
		case string:
			out = append(out, v)
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// decodeVisualizations skips null elements and elements that do not decode. Options that
// are not an object are dropped; the chart itself is kept.
func decodeVisualizations(raw json.RawMessage) []Visualization {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []Visualization{}
	}
	out := make([]Visualization, 0, len(items))
	for _, item := range items {
		var v struct {
			Type    ChartType `json:"type"`
			Data    any       `json:"data"`
			Options any       `json:"options"`
			Title   any       `json:"title"`
		}
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) || json.Unmarshal(item, &v) != nil {
			continue
		}
		viz := Visualization{Type: v.Type, Data: v.Data}
		if opts, ok := v.Options.(map[string]any); ok {
			viz.Options = opts
		}
		switch t := v.Title.(type) {
		case nil:
		case string:
			viz.Title = t
		default:
			viz.Title = fmt.Sprint(t)
		}
		out = append(out, viz)
	}
	return out
}
