package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/internal/chart"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/query"
	"github.com/ledgerlens/ledgerlens/internal/session"
)

// AssistantPlaceholder is the assistant entry recorded for every completed turn.
const AssistantPlaceholder = "Generated SQL, results, charts, and insights shown above."

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrGeneration    = errors.New("sql generation failed")
)

type Agent interface {
	GenerateSQL(ctx context.Context, question string) ([]string, error)
	GenerateInsight(ctx context.Context, question string, table query.Result) (string, error)
}

type Pipeline struct {
	Agent  Agent
	Engine query.Engine
	Logger *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewPipeline(agent Agent, engine query.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Agent: agent, Engine: engine, Logger: logger, now: time.Now, newID: uuid.NewString}
}

// Run answers question and records the exchange in history. Statement, chart
// and insight failures stay on their item; only a failed SQL generation
// aborts the turn, in which case history keeps the user entry alone.
func (p *Pipeline) Run(ctx context.Context, question string, history *session.History) (Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, ErrEmptyQuestion
	}
	logger := p.logger()

	if history != nil {
		history.Append(session.RoleUser, question)
	}

	statements, err := p.Agent.GenerateSQL(ctx, question)
	if err != nil {
		observability.ObserveReportTurn("generation_failed")
		logger.Warn("sql generation failed", slog.Any("error", err))
		return Turn{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	turn := Turn{
		ID:        p.id(),
		Question:  question,
		CreatedAt: p.clock().UTC(),
		Items:     make([]Item, 0, len(statements)),
	}
	failed := 0
	for i, result := range ExecuteAll(ctx, p.Engine, statements) {
		item := p.buildItem(ctx, question, i+1, result)
		if !item.OK() {
			failed++
		}
		turn.Items = append(turn.Items, item)
	}

	if history != nil {
		history.Append(session.RoleAssistant, AssistantPlaceholder)
	}
	observability.ObserveReportTurn("ok")
	logger.Info("report turn completed",
		slog.String("turn_id", turn.ID),
		slog.Int("statements", len(statements)),
		slog.Int("failed_statements", failed),
	)
	return turn, nil
}

func (p *Pipeline) buildItem(ctx context.Context, question string, index int, result StatementResult) Item {
	logger := p.logger()
	item := Item{Index: index, SQL: result.SQL, Chart: chart.Spec{Kind: chart.KindNone}}
	if !result.OK() {
		item.Error = result.Error
		logger.Debug("statement failed", slog.Int("item", index), slog.String("error", result.Error))
		return item
	}
	table := *result.Table
	item.Columns = table.Columns
	item.Rows = table.Rows
	logger.Debug("statement executed",
		slog.Int("item", index),
		slog.Int("rows", len(table.Rows)),
		slog.Duration("duration", table.Duration),
	)

	item.Chart = chart.Select(table.Columns)
	if item.Chart.Kind != chart.KindNone {
		png, err := chart.Render(item.Chart, table)
		if err != nil {
			item.ChartError = err.Error()
		} else {
			item.ChartPNG = png
		}
	}

	insight, err := p.Agent.GenerateInsight(ctx, question, table)
	if err != nil {
		item.InsightError = err.Error()
		logger.Warn("insight generation failed", slog.Int("item", index), slog.Any("error", err))
	} else {
		item.Insight = insight
	}
	return item
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

func (p *Pipeline) id() string {
	if p.newID == nil {
		return uuid.NewString()
	}
	return p.newID()
}
