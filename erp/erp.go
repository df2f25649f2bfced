// Package erp fetches the records behind a synthesized query from an ERP
// backend.
//
// Design decisions:
//   - Backends implement Source; the Executor is the only caller and it
//     isolates failures per query so one bad endpoint never sinks a
//     question.
//   - Three backends ship: fixed demo records, the NetSuite REST API and a
//     Postgres replica. They all return the same typed record slices so the
//     enricher can chart them without caring where they came from.
package erp

import (
	"context"

	"github.com/DachengChen/paiERP/query"
)

// Entity holds the fields shared by every NetSuite record.
type Entity struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Type         string `json:"type" db:"type"`
	LastModified string `json:"lastModified" db:"last_modified"`
}

// Customer is a customer record.
type Customer struct {
	Entity
	Email         string  `json:"email" db:"email"`
	Phone         string  `json:"phone" db:"phone"`
	Status        string  `json:"status" db:"status"`
	TotalRevenue  float64 `json:"totalRevenue" db:"total_revenue"`
	LastOrderDate string  `json:"lastOrderDate" db:"last_order_date"`
}

// SalesOrder is a sales order transaction.
type SalesOrder struct {
	Entity
	CustomerID   string  `json:"customerId" db:"customer_id"`
	CustomerName string  `json:"customerName" db:"customer_name"`
	Amount       float64 `json:"amount" db:"amount"`
	Status       string  `json:"status" db:"status"`
	OrderDate    string  `json:"orderDate" db:"order_date"`
	DueDate      string  `json:"dueDate" db:"due_date"`
}

// Invoice is an invoice transaction.
type Invoice struct {
	Entity
	CustomerID   string  `json:"customerId" db:"customer_id"`
	CustomerName string  `json:"customerName" db:"customer_name"`
	Amount       float64 `json:"amount" db:"amount"`
	Status       string  `json:"status" db:"status"`
	DueDate      string  `json:"dueDate" db:"due_date"`
	OverdueDays  int     `json:"overdueDays" db:"overdue_days"`
}

// InventoryItem is a stocked item.
type InventoryItem struct {
	Entity
	SKU          string  `json:"sku" db:"sku"`
	Category     string  `json:"category" db:"category"`
	Quantity     int     `json:"quantity" db:"quantity"`
	ReorderPoint int     `json:"reorderPoint" db:"reorder_point"`
	UnitCost     float64 `json:"unitCost" db:"unit_cost"`
	Location     string  `json:"location" db:"location"`
}

// FinancialPeriod is one accounting period's summary.
type FinancialPeriod struct {
	Period   string  `json:"period" db:"period"`
	Revenue  float64 `json:"revenue" db:"revenue"`
	Expenses float64 `json:"expenses" db:"expenses"`
	Profit   float64 `json:"profit" db:"profit"`
	CashFlow float64 `json:"cashFlow" db:"cash_flow"`
}

// FetchFailedMessage is stored in place of a query's result when it fails.
const FetchFailedMessage = "Failed to retrieve data"

// FetchError marks a data slot whose query failed.
type FetchError struct {
	Message string `json:"error"`
}

// IsFetchError reports whether v is a failed data slot.
func IsFetchError(v any) bool {
	_, ok := v.(FetchError)
	return ok
}

// Data maps each data type to its fetched records or a FetchError.
type Data map[query.DataType]any

// Source fetches the records for one query.
type Source interface {
	Fetch(ctx context.Context, q query.Query) (any, error)
}
