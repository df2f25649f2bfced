// Package config defines paiERP's persisted settings and runtime
// configuration.
//
// Separated from cmd so other packages (db, ssh, tui, server) can depend
// on config without importing Cobra.
package config

import (
	"strconv"
	"strings"
)

// PostgresConfig holds the connection to a local ERP replica database.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`

	SSH SSHConfig `json:"ssh"`
}

// SSHConfig holds SSH tunnel settings.
type SSHConfig struct {
	Enabled       bool   `json:"enabled"`
	Host          string `json:"host,omitempty"`
	Port          int    `json:"port,omitempty"`
	User          string `json:"user,omitempty"`
	KeyPath       string `json:"keyPath,omitempty"`
	KeyPassphrase string `json:"keyPassphrase,omitempty"`
	Password      string `json:"password,omitempty"`

	// KnownHostsPath enables host key verification.
	KnownHostsPath string `json:"knownHostsPath,omitempty"`
}

// DefaultPostgres returns a local replica connection.
func DefaultPostgres() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Database: "erp",
		SSLMode:  "disable",
		SSH:      SSHConfig{Port: 22},
	}
}

// DSN builds a pgx-compatible keyword/value connection string.
// When an SSH tunnel is active, the caller should override Host/Port
// with the local tunnel endpoint.
func (c PostgresConfig) DSN() string {
	parts := []string{
		"host=" + dsnValue(c.Host),
		"port=" + strconv.Itoa(c.Port),
		"user=" + dsnValue(c.User),
	}
	if c.Password != "" {
		parts = append(parts, "password="+dsnValue(c.Password))
	}
	parts = append(parts,
		"dbname="+dsnValue(c.Database),
		"sslmode="+dsnValue(c.SSLMode),
	)
	return strings.Join(parts, " ")
}

// dsnValue quotes v when it is empty or contains spaces or quotes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
