package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// rule maps a keyword set to a category and the confidence it reports.
type rule struct {
	category   Category
	confidence float64
	keywords   []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	// "revenue" is a sales keyword only; financial is checked first.
	{Financial, 0.8, []string{
		"cash flow", "profit", "loss", "expenses", "income",
		"accounts receivable", "accounts payable", "aging", "balance sheet",
		"p&l", "profit and loss", "financial", "budget", "forecast",
	}},
	{Sales, 0.8, []string{
		"sales", "orders", "customers", "opportunities", "pipeline",
		"quotes", "deals", "territory", "performance", "cycle time",
		"top customers", "revenue", "conversion",
	}},
	{Inventory, 0.8, []string{
		"inventory", "stock", "items", "products", "quantity",
		"reorder point", "turnover", "fulfillment", "purchase orders",
		"suppliers", "vendors", "abc analysis",
	}},
	{Customer, 0.8, []string{
		"customers", "contacts", "leads", "churn", "retention",
		"satisfaction", "lifetime value", "segments", "overdue",
	}},
	{Analytics, 0.7, []string{
		"trend", "analysis", "comparison", "variance", "cohort",
		"predictive", "forecast", "kpi", "dashboard", "report",
	}},
}

// Keywords returns the keyword set of a category.
func Keywords(c Category) []string {
	for _, r := range rules {
		if r.category == c {
			return append([]string(nil), r.keywords...)
		}
	}
	return nil
}

var actions = []string{
	"show", "display", "get", "find", "list", "generate",
	"create", "build", "analyze", "compare", "calculate",
	"what is", "how much", "which", "who", "when",
}

// DefaultAction is used when no action word is present.
const DefaultAction = "show"

var (
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`this month|last month|next month`),
		regexp.MustCompile(`this quarter|last quarter|next quarter`),
		regexp.MustCompile(`this year|last year|next year`),
		regexp.MustCompile(`q[1-4] 20\d{2}`),
		regexp.MustCompile(`\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\b`),
	}
	amountPattern   = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?|\d+(?:,\d{3})*(?:\.\d{2})? (?:dollars?|k|thousand|million)`)
	customerPattern = regexp.MustCompile(`(?:[Cc]ustomers?|[Cc]lients?)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`)

	dateRangePattern = regexp.MustCompile(`\b(?:for|in|during)\s+(\S+)`)
	minAmountPattern = regexp.MustCompile(`(?:over|above|more than|greater than)\s+(\$\d+(?:,\d{3})*(?:\.\d{2})?)`)
	limitPattern     = regexp.MustCompile(`(?:top|first|limit)\s+(\d+)`)
	statusPattern    = regexp.MustCompile(`(?:status|state)\s+(open|closed|pending|approved|overdue)`)
)

// Classify maps a free-text question to an Intent. It always succeeds.
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	in := Intent{
		Type:       Analytics,
		Confidence: DefaultConfidence,
	}
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			in.Type = r.category
			in.Confidence = r.confidence
			break
		}
	}

	in.Action = extractAction(lower)
	in.Entities = extractEntities(text, lower)
	in.Parameters = extractParameters(lower)
	return in
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func extractAction(lower string) string {
	for _, a := range actions {
		if strings.Contains(lower, a) {
			return a
		}
	}
	return DefaultAction
}

// extractEntities concatenates matches in pattern order, then match order.
// Time and amount phrases come from the lower-cased text; the customer
// heuristic needs the original casing to find proper nouns.
func extractEntities(text, lower string) []string {
	entities := []string{}
	for _, p := range timePatterns {
		entities = append(entities, p.FindAllString(lower, -1)...)
	}
	entities = append(entities, amountPattern.FindAllString(lower, -1)...)
	entities = append(entities, customerPattern.FindAllString(text, -1)...)
	return entities
}

func extractParameters(lower string) Parameters {
	var p Parameters

	if m := dateRangePattern.FindStringSubmatch(lower); m != nil {
		p.DateRange = m[1]
	}

	if m := minAmountPattern.FindStringSubmatch(lower); m != nil {
		raw := strings.NewReplacer("$", "", ",", "").Replace(m[1])
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			p.MinAmount = &v
		}
	}

	if m := limitPattern.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			p.Limit = &v
		}
	}

	if m := statusPattern.FindStringSubmatch(lower); m != nil {
		p.Status = m[1]
	}

	return p
}
