// Package db manages the pgx connection pool to a local ERP replica.
//
// Design decisions:
//   - pgxpool for concurrent access from HTTP handlers.
//   - Callers see the Querier interface, never the pool.
//   - With SSH enabled, pgx connects to the tunnel's loopback endpoint.
package db

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/ssh"
)

const maxReplicaConns = 8

// DB wraps a pgx connection pool and optional SSH tunnel.
type DB struct {
	Pool   *pgxpool.Pool
	Tunnel *ssh.Tunnel
}

// Connect opens the replica (through a tunnel when configured), pings it
// and creates missing tables.
func Connect(ctx context.Context, cfg config.PostgresConfig) (*DB, error) {
	d := &DB{}

	if cfg.SSH.Enabled {
		target := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		tunnel, err := ssh.Open(ctx, cfg.SSH, target)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel: %w", err)
		}
		d.Tunnel = tunnel
		cfg.Host, cfg.Port = tunnel.LocalAddr()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = maxReplicaConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("pgx connect: %w", err)
	}
	d.Pool = pool

	if err := pool.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	if err := d.EnsureSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}

	applog.L().Info("replica connected",
		zap.String("database", cfg.Database),
		zap.Bool("ssh", d.Tunnel != nil),
	)
	return d, nil
}

// Close shuts down the pool and SSH tunnel.
func (d *DB) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Tunnel != nil {
		d.Tunnel.Close()
	}
}
