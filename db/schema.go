// schema.go holds the ERP replica tables.
//
// The replica mirrors the records paiERP reads from NetSuite:
//   - customers, sales_orders, invoices
//   - inventory_items
//   - financial_periods (one row per accounting period)
//
// Statements are idempotent and run on every Connect.
package db

import (
	"context"
	"fmt"
)

var replicaSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL DEFAULT '',
		phone           TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'active',
		total_revenue   NUMERIC(14,2) NOT NULL DEFAULT 0,
		last_order_date DATE,
		last_modified   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sales_orders (
		id            TEXT PRIMARY KEY,
		tran_id       TEXT NOT NULL,
		customer_id   TEXT NOT NULL REFERENCES customers(id),
		amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		order_date    DATE NOT NULL,
		due_date      DATE,
		last_modified TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id            TEXT PRIMARY KEY,
		tran_id       TEXT NOT NULL,
		customer_id   TEXT NOT NULL REFERENCES customers(id),
		amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		due_date      DATE,
		last_modified TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id            TEXT PRIMARY KEY,
		sku           TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT 'inventory',
		quantity      INTEGER NOT NULL DEFAULT 0,
		reorder_point INTEGER NOT NULL DEFAULT 0,
		unit_cost     NUMERIC(14,2) NOT NULL DEFAULT 0,
		location      TEXT NOT NULL DEFAULT 'Main',
		last_modified TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS financial_periods (
		period    TEXT PRIMARY KEY,
		revenue   NUMERIC(14,2) NOT NULL DEFAULT 0,
		expenses  NUMERIC(14,2) NOT NULL DEFAULT 0,
		profit    NUMERIC(14,2) NOT NULL DEFAULT 0,
		cash_flow NUMERIC(14,2) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS invoices_due_date_idx ON invoices (due_date)`,
}

// EnsureSchema creates the replica tables when missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range replicaSchema {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure replica schema: %w", err)
		}
	}
	return nil
}
