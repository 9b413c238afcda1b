package nl2sql

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/query"
)

const DefaultPreviewRows = 10

// Agent owns the two prompts of a report turn. It keeps no state between calls.
type Agent struct {
	Generator   Generator
	Schema      Schema
	PreviewRows int
}

func NewAgent(generator Generator, schema Schema, previewRows int) *Agent {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &Agent{Generator: generator, Schema: schema, PreviewRows: previewRows}
}

// GenerateSQL returns the statements of the reply in order. An empty reply
// yields no statements and no error.
func (a *Agent) GenerateSQL(ctx context.Context, question string) ([]string, error) {
	prompt, err := BuildSQLPrompt(a.Schema, question)
	if err != nil {
		return nil, err
	}
	reply, err := a.generate(ctx, "sql", prompt)
	if err != nil {
		return nil, err
	}
	return SplitStatements(reply), nil
}

// GenerateInsight returns the reply verbatim.
func (a *Agent) GenerateInsight(ctx context.Context, question string, table query.Result) (string, error) {
	prompt, err := BuildInsightPrompt(question, table, a.PreviewRows)
	if err != nil {
		return "", err
	}
	return a.generate(ctx, "insight", prompt)
}

func (a *Agent) generate(ctx context.Context, purpose, prompt string) (string, error) {
	if a.Generator == nil {
		return "", fmt.Errorf("text generator is not configured")
	}
	start := time.Now()
	reply, err := a.Generator.Generate(ctx, prompt)
	observability.ObserveLLMRequest(purpose, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", purpose, err)
	}
	return reply, nil
}
