package salesdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/query/sqlstore"
)

type Service struct {
	cfg       Config
	log       *slog.Logger
	generator *Generator
}

func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cfg:       cfg,
		log:       logger,
		generator: NewGenerator(cfg.Seed, cfg.StartYear, cfg.Years, cfg.Customers),
	}, nil
}

// Run writes the CSV and, when a store DSN is configured, loads it.
func (s *Service) Run(ctx context.Context) error {
	file, err := os.Create(s.cfg.Output)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.cfg.Output, err)
	}
	if err := s.Write(ctx, file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.cfg.Output, err)
	}
	s.log.Info("wrote demo sales data", slog.String("output", s.cfg.Output), slog.Int("rows", s.cfg.Rows))

	if s.cfg.StoreDSN == "" {
		return nil
	}
	return s.load(ctx)
}

// Write emits the header and cfg.Rows rows to w.
func (s *Service) Write(ctx context.Context, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(nl2sql.SalesSchema.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < s.cfg.Rows; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(s.generator.NextRow()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context) error {
	db, err := sqlstore.Open(ctx, sqlstore.DBConfig{Driver: "duckdb", DSN: s.cfg.StoreDSN, MaxOpenConns: 1})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	seeded, err := sqlstore.SeedFromCSV(ctx, db, "duckdb", s.cfg.Table, s.cfg.Output)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.cfg.Table, err)
	}
	if !seeded {
		s.log.Warn("table already exists; left unchanged", slog.String("table", s.cfg.Table), slog.String("store", s.cfg.StoreDSN))
		return nil
	}
	s.log.Info("loaded demo sales data", slog.String("table", s.cfg.Table), slog.String("store", s.cfg.StoreDSN))
	return nil
}
