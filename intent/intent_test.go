package intent

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       Category
		confidence float64
	}{
		{"cash flow", "Show me the cash flow for Q3 2024", Financial, 0.8},
		{"upper case", "SHOW ME THE CASH FLOW", Financial, 0.8},
		{"mixed case p&l", "Generate the P&L statement", Financial, 0.8},
		{"top customers", "Who are our top 10 customers by revenue this year?", Sales, 0.8},
		{"revenue is sales", "Show revenue for Q3 2024", Sales, 0.8},
		{"revenue with financial keyword", "Show revenue and expenses", Financial, 0.8},
		{"inventory", "Which items are below reorder point?", Inventory, 0.8},
		{"customer churn", "Show churn among our contacts", Customer, 0.8},
		{"analytics keyword", "Build me a KPI dashboard", Analytics, 0.7},
		{"no keyword", "hello there", Analytics, DefaultConfidence},
		{"empty", "", Analytics, DefaultConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.query)
			if got.Type != tt.want {
				t.Errorf("Classify(%q).Type = %v, want %v", tt.query, got.Type, tt.want)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Classify(%q).Confidence = %v, want %v", tt.query, got.Confidence, tt.confidence)
			}
		})
	}
}

func TestClassifyEveryFinancialKeyword(t *testing.T) {
	for _, kw := range Keywords(Financial) {
		for _, q := range []string{kw, strings.ToUpper(kw), "please show " + strings.ToUpper(kw[:1]) + kw[1:]} {
			got := Classify(q)
			if got.Type != Financial || got.Confidence != 0.8 {
				t.Errorf("Classify(%q) = %v/%v, want financial/0.8", q, got.Type, got.Confidence)
			}
		}
	}
}

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Show me the cash flow for Q3 2024", "show"},
		{"Who are our top 10 customers by revenue this year?", "who"},
		{"Compare sales this quarter", "compare"},
		{"How much stock do we have", "how much"},
		{"cash flow please", DefaultAction},
		// "display" is checked before "list"
		{"list and display orders", "display"},
	}
	for _, tt := range tests {
		if got := Classify(tt.query).Action; got != tt.want {
			t.Errorf("Classify(%q).Action = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestClassifyEntities(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Show me the cash flow for Q3 2024", []string{"q3 2024"}},
		{"Who are our top 10 customers by revenue this year?", []string{"this year"}},
		{"Show invoices over $10,000 this month", []string{"this month", "$10,000"}},
		{"Revenue in March and May, 50 thousand", []string{"march", "may", "50 thousand"}},
		{"List orders for customer Acme Corporation", []string{"customer Acme Corporation"}},
		{"List orders for Customer Acme", []string{"Customer Acme"}},
		// proper nouns only: lower-case words after "customers" are not names
		{"list orders for customer acme corporation", []string{}},
		{"Top customers by revenue", []string{}},
		{"no entities here", []string{}},
	}
	for _, tt := range tests {
		got := Classify(tt.query).Entities
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Classify(%q).Entities = %#v, want %#v", tt.query, got, tt.want)
		}
	}
}

func TestClassifyParameters(t *testing.T) {
	in := Classify("Show the top 5 orders with status pending over $1,250.50 for march")
	p := in.Parameters
	if p.Limit == nil || *p.Limit != 5 {
		t.Errorf("Limit = %v, want 5", p.Limit)
	}
	if p.Status != "pending" {
		t.Errorf("Status = %q, want pending", p.Status)
	}
	if p.MinAmount == nil || *p.MinAmount != 1250.50 {
		t.Errorf("MinAmount = %v, want 1250.50", p.MinAmount)
	}
	if p.DateRange != "march" {
		t.Errorf("DateRange = %q, want march", p.DateRange)
	}

	top := Classify("Who are our top 10 customers by revenue this year?").Parameters
	if top.Limit == nil || *top.Limit != 10 {
		t.Errorf("Limit = %v, want 10", top.Limit)
	}
	if top.DateRange != "" || top.MinAmount != nil || top.Status != "" {
		t.Errorf("unexpected parameters: %+v", top)
	}

	if got := Classify("Show me the cash flow for Q3 2024").Parameters.DateRange; got != "q3" {
		t.Errorf("DateRange = %q, want q3", got)
	}
	// "in" inside a word is not a date-range marker
	if got := Classify("payments within 30 days").Parameters.DateRange; got != "" {
		t.Errorf("DateRange = %q, want empty", got)
	}
}

func TestParametersMap(t *testing.T) {
	var p Parameters
	if !p.IsZero() || len(p.Map()) != 0 {
		t.Fatalf("zero Parameters should map to nothing, got %v", p.Map())
	}
	limit := 3
	p = Parameters{Limit: &limit, Status: "open"}
	want := map[string]any{"limit": 3, "status": "open"}
	if got := p.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"ok", "Show me the cash flow", []string{}},
		{"empty", "", []string{ErrMsgEmpty}},
		{"blank", "   ", []string{ErrMsgEmpty}},
		{"too long", strings.Repeat("a", MaxQueryLength+1), []string{ErrMsgTooLong}},
		{"exactly max", strings.Repeat("a", MaxQueryLength), []string{}},
		{"drop table", "DROP TABLE customers", []string{ErrMsgHarmful}},
		{"update set", "update customers set name = 'x'", []string{ErrMsgHarmful}},
		{"two patterns", "delete from a; insert into b", []string{ErrMsgHarmful, ErrMsgHarmful}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.query)
			if !reflect.DeepEqual(got.Errors, tt.want) {
				t.Errorf("Validate(%q).Errors = %v, want %v", tt.query, got.Errors, tt.want)
			}
			if got.Valid != (len(tt.want) == 0) {
				t.Errorf("Validate(%q).Valid = %v", tt.query, got.Valid)
			}
		})
	}
}
