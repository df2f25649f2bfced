package ai

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseResponsePassThrough(t *testing.T) {
	raw := `Here you go:
{"data":{"total":42},"insights":["a","b"],"summary":"sum","recommendations":["r1"],
 "visualizations":[{"type":"bar","title":"T","data":[1,2]}]}
Thanks!`

	got := ParseResponse(raw)
	if got.Summary != "sum" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if !reflect.DeepEqual(got.Insights, []string{"a", "b"}) {
		t.Errorf("Insights = %v", got.Insights)
	}
	if !reflect.DeepEqual(got.Recommendations, []string{"r1"}) {
		t.Errorf("Recommendations = %v", got.Recommendations)
	}
	if !reflect.DeepEqual(got.Data, map[string]any{"total": float64(42)}) {
		t.Errorf("Data = %v", got.Data)
	}
	if len(got.Visualizations) != 1 || got.Visualizations[0].Type != ChartBar || got.Visualizations[0].Title != "T" {
		t.Errorf("Visualizations = %+v", got.Visualizations)
	}
}

func TestParseResponseMissingFields(t *testing.T) {
	got := ParseResponse(`{"summary":"only"}`)
	if got.Summary != "only" {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.Insights == nil || len(got.Insights) != 0 {
		t.Errorf("Insights = %#v, want empty non-nil", got.Insights)
	}
	if got.Recommendations == nil || got.Visualizations == nil {
		t.Error("slices must default to empty, not nil")
	}
	if !reflect.DeepEqual(got.Data, map[string]any{}) {
		t.Errorf("Data = %#v, want empty object", got.Data)
	}
}

func TestParseResponseFallback(t *testing.T) {
	tests := []string{
		"plain text with no braces",
		"broken { json here }",
		"} reversed {",
		"",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			got := ParseResponse(raw)
			if got.Summary != raw {
				t.Errorf("Summary = %q, want %q", got.Summary, raw)
			}
			if !reflect.DeepEqual(got.Insights, []string{raw}) {
				t.Errorf("Insights = %v", got.Insights)
			}
			if len(got.Visualizations) != 0 || len(got.Recommendations) != 0 {
				t.Errorf("expected empty lists, got %+v", got)
			}
			if !reflect.DeepEqual(got.Data, map[string]any{}) {
				t.Errorf("Data = %#v", got.Data)
			}
		})
	}
}

func TestParseResponseGreedySpan(t *testing.T) {
	// Two objects side by side do not form one valid span.
	raw := `{"summary":"one"} and {"summary":"two"}`
	got := ParseResponse(raw)
	if got.Summary != raw {
		t.Errorf("Summary = %q, want fallback", got.Summary)
	}
}

func TestParseResponseMalformedElements(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		insights        []string
		recommendations []string
		vizTitles       []string
	}{
		{
			name:      "options not an object",
			raw:       `{"visualizations":[{"type":"bar","title":"Sales","data":[1],"options":"stacked"}]}`,
			insights:  []string{},
			vizTitles: []string{"Sales"},
		},
		{
			name:      "one bad chart among good ones",
			raw:       `{"visualizations":[{"type":"line","title":"A"},"oops",null,{"type":7},{"type":"pie","title":"B"}]}`,
			insights:  []string{},
			vizTitles: []string{"A", "B"},
		},
		{
			name:            "non-string list entries",
			raw:             `{"insights":["a", 3, true, null],"recommendations":[1.5,"r"]}`,
			insights:        []string{"a", "3", "true"},
			recommendations: []string{"1.5", "r"},
			vizTitles:       []string{},
		},
		{
			name:      "list field not an array",
			raw:       `{"insights":"a","visualizations":{"type":"bar"}}`,
			insights:  []string{},
			vizTitles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.raw)
			if !reflect.DeepEqual(got.Insights, tt.insights) {
				t.Errorf("Insights = %#v, want %#v", got.Insights, tt.insights)
			}
			wantRecs := tt.recommendations
			if wantRecs == nil {
				wantRecs = []string{}
			}
			if !reflect.DeepEqual(got.Recommendations, wantRecs) {
				t.Errorf("Recommendations = %#v, want %#v", got.Recommendations, wantRecs)
			}
			titles := []string{}
			for _, v := range got.Visualizations {
				titles = append(titles, v.Title)
			}
			if !reflect.DeepEqual(titles, tt.vizTitles) {
				t.Errorf("visualization titles = %#v, want %#v", titles, tt.vizTitles)
			}
		})
	}
}

func TestParseResponseKeepsObjectOptions(t *testing.T) {
	got := ParseResponse(`{"visualizations":[{"type":"bar","title":"T","options":{"stacked":true}},{"type":"bar","title":"U","options":"stacked"}]}`)
	if len(got.Visualizations) != 2 {
		t.Fatalf("Visualizations = %+v", got.Visualizations)
	}
	if !reflect.DeepEqual(got.Visualizations[0].Options, map[string]any{"stacked": true}) {
		t.Errorf("Options = %#v", got.Visualizations[0].Options)
	}
	if got.Visualizations[1].Options != nil {
		t.Errorf("Options = %#v, want nil", got.Visualizations[1].Options)
	}
	if got.Visualizations[1].Type != ChartBar {
		t.Errorf("Type = %q", got.Visualizations[1].Type)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("top customers", map[string]any{"limit": 10})
	for _, want := range []string{
		promptPreamble,
		`Query: "top customers"`,
		"\"limit\": 10",
		`"visualizations": [`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
