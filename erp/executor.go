package erp

import (
	"context"

	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/query"
)

// Executor runs synthesized queries against a Source.
type Executor struct {
	src Source

	// OnFailure, when set, is called for every failed query.
	OnFailure func(q query.Query, err error)
}

// NewExecutor creates an executor over src.
func NewExecutor(src Source) *Executor {
	return &Executor{src: src}
}

// Run executes queries in order. A failed query stores a FetchError under
// its data type and never aborts the rest. A data type that appears twice
// keeps the later result.
func (e *Executor) Run(ctx context.Context, queries []query.Query) Data {
	data := make(Data, len(queries))
	for _, q := range queries {
		res, err := e.src.Fetch(ctx, q)
		if err != nil {
			applog.L().Warn("backend query failed",
				zap.String("data_type", string(q.DataType)),
				zap.String("endpoint", q.Endpoint),
				zap.Error(err),
			)
			if e.OnFailure != nil {
				e.OnFailure(q, err)
			}
			data[q.DataType] = FetchError{Message: FetchFailedMessage}
			continue
		}
		data[q.DataType] = res
	}
	return data
}
