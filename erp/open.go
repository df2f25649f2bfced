package erp

import (
	"context"
	"fmt"

	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/db"
)

// Open builds the Source selected in settings. The returned func releases
// its resources and is never nil.
func Open(ctx context.Context, s *config.Settings) (Source, func(), error) {
	noop := func() {}
	switch s.Backend {
	case config.BackendDemo, "":
		return DemoSource{}, noop, nil

	case config.BackendNetSuite:
		if !s.NetSuite.Configured() {
			return nil, noop, fmt.Errorf("netsuite backend selected but credentials are incomplete")
		}
		return NewNetSuiteSource(s.NetSuite, nil), noop, nil

	case config.BackendPostgres:
		d, err := db.Connect(ctx, s.Postgres)
		if err != nil {
			return nil, noop, fmt.Errorf("open replica: %w", err)
		}
		return NewPostgresSource(d), d.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown backend %q", s.Backend)
	}
}
