// Package report runs one question through SQL generation, execution,
// charting, and insight generation, and exports the resulting items.
package report

import (
	"context"

	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/query"
)

// StatementResult holds exactly one of Table or Error.
type StatementResult struct {
	SQL   string
	Table *query.Result
	Error string
}

func (r StatementResult) OK() bool { return r.Table != nil }

// ExecuteAll runs statements in order. A failing statement records its error
// message and the rest still run.
func ExecuteAll(ctx context.Context, engine query.Engine, statements []string) []StatementResult {
	results := make([]StatementResult, 0, len(statements))
	for _, statement := range statements {
		result, err := engine.Execute(ctx, query.Request{SQL: statement})
		observability.ObserveStatement(err != nil)
		if err != nil {
			results = append(results, StatementResult{SQL: statement, Error: err.Error()})
			continue
		}
		table := result
		results = append(results, StatementResult{SQL: statement, Table: &table})
	}
	return results
}

// Guarded wraps engine so every statement passes check before it runs.
func Guarded(engine query.Engine, check func(statement string) error) query.Engine {
	return guardedEngine{engine: engine, check: check}
}

type guardedEngine struct {
	engine query.Engine
	check  func(string) error
}

func (g guardedEngine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if err := g.check(request.SQL); err != nil {
		return query.Result{}, err
	}
	return g.engine.Execute(ctx, request)
}
