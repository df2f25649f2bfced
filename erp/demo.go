package erp

import (
	"context"

	"github.com/DachengChen/paiERP/query"
)

// DemoSource serves fixed demo records. It never fails.
type DemoSource struct{}

var _ Source = DemoSource{}

// Fetch returns the demo records for q's data type. Financial data types
// share the period summaries; unknown types yield an empty list.
func (DemoSource) Fetch(_ context.Context, q query.Query) (any, error) {
	switch q.DataType {
	case query.Customers:
		return DemoCustomers(), nil
	case query.Orders:
		return DemoSalesOrders(), nil
	case query.Invoices:
		return DemoInvoices(), nil
	case query.Inventory:
		return DemoInventory(), nil
	case query.CashFlow, query.ProfitLoss, query.AccountsReceivable:
		return DemoFinancials(), nil
	default:
		return []any{}, nil
	}
}

// DemoCustomers returns a fresh copy of the demo customers.
func DemoCustomers() []Customer {
	return []Customer{
		{
			Entity:        Entity{ID: "1", Name: "Acme Corporation", Type: "customer", LastModified: "2024-01-15T10:30:00Z"},
			Email:         "contact@acme.com",
			Phone:         "+1-555-0123",
			Status:        "active",
			TotalRevenue:  1250000.00,
			LastOrderDate: "2024-01-10",
		},
		{
			Entity:        Entity{ID: "2", Name: "TechStart Inc", Type: "customer", LastModified: "2024-01-14T14:20:00Z"},
			Email:         "sales@techstart.com",
			Phone:         "+1-555-0456",
			Status:        "active",
			TotalRevenue:  850000.00,
			LastOrderDate: "2024-01-12",
		},
		{
			Entity:        Entity{ID: "3", Name: "Global Solutions Ltd", Type: "customer", LastModified: "2024-01-13T09:15:00Z"},
			Email:         "info@globalsolutions.com",
			Phone:         "+1-555-0789",
			Status:        "inactive",
			TotalRevenue:  2100000.00,
			LastOrderDate: "2023-12-20",
		},
	}
}

// DemoSalesOrders returns a fresh copy of the demo sales orders.
func DemoSalesOrders() []SalesOrder {
	return []SalesOrder{
		{
			Entity:       Entity{ID: "1", Name: "SO-001", Type: "salesorder", LastModified: "2024-01-15T11:00:00Z"},
			CustomerID:   "1",
			CustomerName: "Acme Corporation",
			Amount:       50000.00,
			Status:       "pending_approval",
			OrderDate:    "2024-01-15",
			DueDate:      "2024-02-15",
		},
		{
			Entity:       Entity{ID: "2", Name: "SO-002", Type: "salesorder", LastModified: "2024-01-14T16:30:00Z"},
			CustomerID:   "2",
			CustomerName: "TechStart Inc",
			Amount:       75000.00,
			Status:       "pending_fulfillment",
			OrderDate:    "2024-01-14",
			DueDate:      "2024-02-14",
		},
	}
}

// DemoInvoices returns a fresh copy of the demo invoices.
func DemoInvoices() []Invoice {
	return []Invoice{
		{
			Entity:       Entity{ID: "1", Name: "INV-001", Type: "invoice", LastModified: "2024-01-10T10:00:00Z"},
			CustomerID:   "1",
			CustomerName: "Acme Corporation",
			Amount:       50000.00,
			Status:       "pending_approval",
			DueDate:      "2024-02-10",
		},
		{
			Entity:       Entity{ID: "2", Name: "INV-002", Type: "invoice", LastModified: "2023-12-15T14:00:00Z"},
			CustomerID:   "3",
			CustomerName: "Global Solutions Ltd",
			Amount:       100000.00,
			Status:       "pending_approval",
			DueDate:      "2024-01-15",
		},
	}
}

// DemoInventory returns a fresh copy of the demo inventory.
func DemoInventory() []InventoryItem {
	return []InventoryItem{
		{
			Entity:       Entity{ID: "1", Name: "PROD-001", Type: "inventoryitem", LastModified: "2024-01-15T12:00:00Z"},
			SKU:          "PROD-001",
			Category:     "electronics",
			Quantity:     150,
			ReorderPoint: 50,
			UnitCost:     25.00,
			Location:     "Main Warehouse",
		},
		{
			Entity:       Entity{ID: "2", Name: "PROD-002", Type: "inventoryitem", LastModified: "2024-01-14T15:30:00Z"},
			SKU:          "PROD-002",
			Category:     "office supplies",
			Quantity:     25,
			ReorderPoint: 100,
			UnitCost:     10.00,
			Location:     "Main Warehouse",
		},
	}
}

// DemoFinancials returns a fresh copy of the demo period summaries.
func DemoFinancials() []FinancialPeriod {
	return []FinancialPeriod{
		{Period: "2024-01", Revenue: 500000.00, Expenses: 350000.00, Profit: 150000.00, CashFlow: 120000.00},
		{Period: "2024-02", Revenue: 550000.00, Expenses: 375000.00, Profit: 175000.00, CashFlow: 140000.00},
		{Period: "2024-03", Revenue: 600000.00, Expenses: 400000.00, Profit: 200000.00, CashFlow: 180000.00},
	}
}
