package erp

import (
	"context"
	"fmt"
	"strings"

	"github.com/DachengChen/paiERP/db"
	"github.com/DachengChen/paiERP/intent"
	"github.com/DachengChen/paiERP/query"
)

// PostgresSource reads records from a local ERP replica.
type PostgresSource struct {
	q db.Querier
}

var _ Source = (*PostgresSource)(nil)

// NewPostgresSource creates a source over q, usually a *db.DB.
func NewPostgresSource(q db.Querier) *PostgresSource {
	return &PostgresSource{q: q}
}

// Fetch runs the replica statement for q's data type. Types the replica
// does not hold yield an empty list.
func (s *PostgresSource) Fetch(ctx context.Context, q query.Query) (any, error) {
	stmt, ok := replicaStatement(q.DataType, q.Parameters)
	if !ok {
		return []any{}, nil
	}
	sql, args := stmt.build()

	switch q.DataType {
	case query.Customers:
		return db.Select[Customer](ctx, s.q, sql, args...)
	case query.Orders:
		return db.Select[SalesOrder](ctx, s.q, sql, args...)
	case query.Invoices, query.OverdueCustomers:
		return db.Select[Invoice](ctx, s.q, sql, args...)
	case query.Inventory, query.ReorderPoints:
		return db.Select[InventoryItem](ctx, s.q, sql, args...)
	default:
		return db.Select[FinancialPeriod](ctx, s.q, sql, args...)
	}
}

const isoTimestamp = `'YYYY-MM-DD"T"HH24:MI:SS"Z"'`

type selectStmt struct {
	cols    []string
	from    string
	where   []string
	args    []any
	orderBy string
	limit   *int
}

// filter appends a condition; cond carries one %d for the placeholder.
func (s *selectStmt) filter(cond string, arg any) {
	s.args = append(s.args, arg)
	s.where = append(s.where, fmt.Sprintf(cond, len(s.args)))
}

func (s *selectStmt) build() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.from)
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.where, " AND "))
	}
	if s.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(s.orderBy)
	}
	args := s.args
	if s.limit != nil {
		args = append(args, *s.limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func replicaStatement(dt query.DataType, p intent.Parameters) (*selectStmt, bool) {
	var s *selectStmt
	switch dt {
	case query.Customers:
		s = &selectStmt{
			cols: []string{
				"id", "name", "'customer' AS type",
				"to_char(last_modified AT TIME ZONE 'UTC', " + isoTimestamp + ") AS last_modified",
				"email", "phone", "status",
				"total_revenue::float8 AS total_revenue",
				"COALESCE(to_char(last_order_date, 'YYYY-MM-DD'), '') AS last_order_date",
			},
			from:    "customers",
			orderBy: "total_revenue DESC",
		}
		if p.Status != "" {
			s.filter("status = $%d", p.Status)
		}
		if p.MinAmount != nil {
			s.filter("total_revenue >= $%d", *p.MinAmount)
		}

	case query.Orders:
		s = &selectStmt{
			cols: []string{
				"o.id", "o.tran_id AS name", "'salesorder' AS type",
				"to_char(o.last_modified AT TIME ZONE 'UTC', " + isoTimestamp + ") AS last_modified",
				"o.customer_id", "c.name AS customer_name",
				"o.amount::float8 AS amount", "o.status",
				"to_char(o.order_date, 'YYYY-MM-DD') AS order_date",
				"to_char(COALESCE(o.due_date, o.order_date), 'YYYY-MM-DD') AS due_date",
			},
			from:    "sales_orders o JOIN customers c ON c.id = o.customer_id",
			orderBy: "o.order_date DESC",
		}
		if p.Status != "" {
			s.filter("o.status = $%d", p.Status)
		}
		if p.MinAmount != nil {
			s.filter("o.amount >= $%d", *p.MinAmount)
		}

	case query.Invoices, query.OverdueCustomers:
		s = &selectStmt{
			cols: []string{
				"i.id", "i.tran_id AS name", "'invoice' AS type",
				"to_char(i.last_modified AT TIME ZONE 'UTC', " + isoTimestamp + ") AS last_modified",
				"i.customer_id", "c.name AS customer_name",
				"i.amount::float8 AS amount", "i.status",
				"COALESCE(to_char(i.due_date, 'YYYY-MM-DD'), '') AS due_date",
				"GREATEST(COALESCE(CURRENT_DATE - i.due_date, 0), 0)::int AS overdue_days",
			},
			from:    "invoices i JOIN customers c ON c.id = i.customer_id",
			orderBy: "i.due_date",
		}
		if dt == query.OverdueCustomers {
			s.where = append(s.where, "i.due_date < CURRENT_DATE", "i.status <> 'paid'")
		}
		if p.Status != "" {
			s.filter("i.status = $%d", p.Status)
		}
		if p.MinAmount != nil {
			s.filter("i.amount >= $%d", *p.MinAmount)
		}

	case query.Inventory, query.ReorderPoints:
		s = &selectStmt{
			cols: []string{
				"id", "sku AS name", "'inventoryitem' AS type",
				"to_char(last_modified AT TIME ZONE 'UTC', " + isoTimestamp + ") AS last_modified",
				"sku", "category", "quantity", "reorder_point",
				"unit_cost::float8 AS unit_cost", "location",
			},
			from:    "inventory_items",
			orderBy: "sku",
		}
		if dt == query.ReorderPoints {
			s.where = append(s.where, "quantity <= reorder_point")
		}
		if p.MinAmount != nil {
			s.filter("unit_cost >= $%d", *p.MinAmount)
		}

	case query.CashFlow, query.ProfitLoss, query.AccountsReceivable:
		s = &selectStmt{
			cols: []string{
				"period",
				"revenue::float8 AS revenue",
				"expenses::float8 AS expenses",
				"profit::float8 AS profit",
				"cash_flow::float8 AS cash_flow",
			},
			from:    "financial_periods",
			orderBy: "period",
		}

	default:
		return nil, false
	}
	s.limit = p.Limit
	return s, true
}
