package nl2sql

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/ledgerlens/ledgerlens/internal/query"
)

const sqlPromptTemplate = `You are an expert data analyst writing DuckDB SQL.
DuckDB uses PostgreSQL-like SQL syntax.

{{.schema}}
Rules:
- Use only the table and columns listed above.
- Return ONLY SQL. No markdown, no explanation.
- When the question needs more than one query, separate the statements with a semicolon.

Question:
{{.question}}
`

const insightPromptTemplate = `You are a business analyst. Given the question and the first rows of the query result below,
write a short insight (2-3 sentences) for a business audience.

Question:
{{.question}}

Result preview (CSV):
{{.preview}}`

var (
	sqlPrompt     = prompts.NewPromptTemplate(sqlPromptTemplate, []string{"schema", "question"})
	insightPrompt = prompts.NewPromptTemplate(insightPromptTemplate, []string{"question", "preview"})
)

// BuildSQLPrompt is deterministic for a given schema and question.
func BuildSQLPrompt(schema Schema, question string) (string, error) {
	prompt, err := sqlPrompt.Format(map[string]any{
		"schema":   schema.Text(),
		"question": strings.TrimSpace(question),
	})
	if err != nil {
		return "", fmt.Errorf("format sql prompt: %w", err)
	}
	return prompt, nil
}

func BuildInsightPrompt(question string, table query.Result, previewRows int) (string, error) {
	preview, err := PreviewCSV(table.Preview(previewRows))
	if err != nil {
		return "", err
	}
	prompt, err := insightPrompt.Format(map[string]any{
		"question": strings.TrimSpace(question),
		"preview":  preview,
	})
	if err != nil {
		return "", fmt.Errorf("format insight prompt: %w", err)
	}
	return prompt, nil
}

// PreviewCSV renders a header row plus every row of table.
func PreviewCSV(table query.Result) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return "", fmt.Errorf("write preview header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write(query.FormatRow(row)); err != nil {
			return "", fmt.Errorf("write preview row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush preview: %w", err)
	}
	return buf.String(), nil
}
