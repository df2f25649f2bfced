// Package query turns a classified intent into logical ERP backend
// queries and the analysis prompt sent to the AI provider.
//
// Synthesis is a pure table lookup: each category owns an ordered list of
// rules, and every rule whose sub-keywords appear in the question emits one
// query. The same (intent, text) pair always yields the same list.
package query

import (
	"strings"

	"github.com/DachengChen/paiERP/intent"
)

// DataType tags what kind of records a query returns.
type DataType string

const (
	CashFlow           DataType = "cashFlow"
	AccountsReceivable DataType = "accountsReceivable"
	ProfitLoss         DataType = "profitLoss"
	Customers          DataType = "customers"
	Opportunities      DataType = "opportunities"
	Orders             DataType = "orders"
	Invoices           DataType = "invoices"
	Inventory          DataType = "inventory"
	ReorderPoints      DataType = "reorderPoints"
	PurchaseOrders     DataType = "purchaseOrders"
	OverdueCustomers   DataType = "overdueCustomers"
	Trends             DataType = "trends"
	Comparison         DataType = "comparison"
)

// Query is a logical backend request descriptor.
type Query struct {
	Endpoint   string            `json:"endpoint"`
	Parameters intent.Parameters `json:"parameters"`
	DataType   DataType          `json:"dataType"`
}

type rule struct {
	keywords []string
	endpoint string
	dataType DataType
}

var rules = map[intent.Category][]rule{
	intent.Financial: {
		{[]string{"cash flow"}, "/financial/cashflow", CashFlow},
		{[]string{"accounts receivable", "aging"}, "/financial/accounts-receivable", AccountsReceivable},
		{[]string{"p&l", "profit and loss"}, "/financial/profit-loss", ProfitLoss},
	},
	intent.Sales: {
		{[]string{"customers", "top"}, "/sales/customers", Customers},
		{[]string{"opportunities", "pipeline"}, "/sales/opportunities", Opportunities},
		{[]string{"orders"}, "/sales/orders", Orders},
	},
	intent.Inventory: {
		{[]string{"inventory", "stock"}, "/inventory/items", Inventory},
		{[]string{"reorder point"}, "/inventory/reorder-points", ReorderPoints},
		{[]string{"purchase orders"}, "/inventory/purchase-orders", PurchaseOrders},
	},
	intent.Customer: {
		{[]string{"customers", "contacts"}, "/customers/list", Customers},
		{[]string{"overdue", "churn"}, "/customers/overdue", OverdueCustomers},
	},
	intent.Analytics: {
		{[]string{"trend", "analysis"}, "/analytics/trends", Trends},
		{[]string{"comparison"}, "/analytics/comparison", Comparison},
	},
}

// Synthesize returns the backend queries for an intent, in rule order.
// Sub-keywords are matched case-insensitively against text. The result is
// empty, never nil, when nothing matched.
func Synthesize(in intent.Intent, text string) []Query {
	lower := strings.ToLower(text)
	queries := []Query{}
	for _, r := range rules[in.Type] {
		if !matches(lower, r.keywords) {
			continue
		}
		queries = append(queries, Query{
			Endpoint:   r.endpoint,
			Parameters: in.Parameters,
			DataType:   r.dataType,
		})
	}
	return queries
}

func matches(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Processed bundles everything derived from one question.
type Processed struct {
	OriginalQuery string        `json:"originalQuery"`
	Intent        intent.Intent `json:"intent"`
	Queries       []Query       `json:"netSuiteQueries"`
	Prompt        string        `json:"aiPrompt"`
}

// Process classifies text and derives its queries and analysis prompt.
func Process(text string) Processed {
	in := intent.Classify(text)
	return Processed{
		OriginalQuery: text,
		Intent:        in,
		Queries:       Synthesize(in, text),
		Prompt:        BuildPrompt(text, in),
	}
}
