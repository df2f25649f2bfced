// Package intent classifies free-text ERP questions.
//
// Classification is keyword-set membership over a fixed, ordered rule
// table: the first category whose keywords appear in the lower-cased
// question wins. Entities and parameters are pulled out with independent
// regular-expression passes. Nothing here can fail.
package intent

// Category is the closed set of query categories.
type Category string

const (
	Financial Category = "financial"
	Sales     Category = "sales"
	Inventory Category = "inventory"
	Customer  Category = "customer"
	Analytics Category = "analytics"
)

// Categories lists every category in classification priority order.
var Categories = []Category{Financial, Sales, Inventory, Customer, Analytics}

// DefaultConfidence is reported when no keyword set matched.
const DefaultConfidence = 0.5

// Intent is the classified purpose of a question. Values are created fresh
// per question and never mutated afterwards.
type Intent struct {
	Type       Category   `json:"type"`
	Action     string     `json:"action"`
	Entities   []string   `json:"entities"`
	Parameters Parameters `json:"parameters"`

	// Confidence is informational only; nothing downstream branches on it.
	Confidence float64 `json:"confidence"`
}

// Parameters are the structured filters extracted from a question.
// Unset fields are omitted from JSON.
type Parameters struct {
	DateRange string   `json:"dateRange,omitempty"`
	MinAmount *float64 `json:"minAmount,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// IsZero reports whether no parameter was extracted.
func (p Parameters) IsZero() bool {
	return p.DateRange == "" && p.MinAmount == nil && p.Limit == nil && p.Status == ""
}

// Map returns the parameters as a flat map of set fields, keyed by their
// JSON names. Useful for query strings and SQL builders.
func (p Parameters) Map() map[string]any {
	m := make(map[string]any)
	if p.DateRange != "" {
		m["dateRange"] = p.DateRange
	}
	if p.MinAmount != nil {
		m["minAmount"] = *p.MinAmount
	}
	if p.Limit != nil {
		m["limit"] = *p.Limit
	}
	if p.Status != "" {
		m["status"] = p.Status
	}
	return m
}
