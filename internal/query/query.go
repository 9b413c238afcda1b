package query

import (
	"context"
	"time"
)

type Request struct {
	SQL      string
	RowLimit int
}

// Result is one tabular statement result. Rows are ordered tuples aligned with Columns.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// Preview returns at most n leading rows of r.
func (r Result) Preview(n int) Result {
	if n < 0 || len(r.Rows) <= n {
		return r
	}
	return Result{Columns: r.Columns, Rows: r.Rows[:n], Duration: r.Duration}
}
