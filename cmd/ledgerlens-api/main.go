package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledgerlens/ledgerlens/internal/api"
	"github.com/ledgerlens/ledgerlens/internal/api/uistatic"
	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/fraud"
	"github.com/ledgerlens/ledgerlens/internal/fraud/model"
	"github.com/ledgerlens/ledgerlens/internal/migrations"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/query"
	"github.com/ledgerlens/ledgerlens/internal/query/sqlstore"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/session"
	s3store "github.com/ledgerlens/ledgerlens/internal/storage/s3"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", slog.Any("error", err))
	}

	cfg, err := config.LoadFromEnv("ledgerlens-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	classifier, err := model.Load(cfg.Model.Path, model.Options{
		SharedLibraryPath: cfg.Model.SharedLibraryPath,
		InputName:         cfg.Model.InputName,
		OutputName:        cfg.Model.OutputName,
		FeatureCount:      fraud.FeatureCount,
	})
	if err != nil {
		logger.Error("failed to load fraud model", slog.String("path", cfg.Model.Path), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = classifier.Close() }()

	db, err := sqlstore.Open(ctx, sqlstore.DBConfig{
		Driver:          cfg.Store.Driver,
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	seeded, err := sqlstore.SeedFromCSV(ctx, db, cfg.Store.Driver, cfg.Store.Table, cfg.Store.SeedCSV)
	if err != nil {
		logger.Error("failed to seed store", slog.String("csv", cfg.Store.SeedCSV), slog.Any("error", err))
		os.Exit(1)
	}
	if seeded {
		logger.Info("seeded store from csv", slog.String("table", cfg.Store.Table), slog.String("csv", cfg.Store.SeedCSV))
	}
	if cfg.Store.Driver == "pgx" {
		pending, err := migrations.NewRunner().Pending(ctx, db)
		switch {
		case err != nil:
			logger.Warn("could not check store migrations", slog.Any("error", err))
		case len(pending) > 0:
			logger.Warn("store has pending migrations; run ledgerlens-migrate", slog.Any("versions", pending))
		}
	}
	if columns, err := sqlstore.TableColumns(ctx, db, cfg.Store.Table); err != nil || len(columns) == 0 {
		logger.Warn("report table not found; questions will fail until it exists", slog.String("table", cfg.Store.Table), slog.Any("error", err))
	}

	generator, err := nl2sql.NewGenerator(ctx, nl2sql.Config{
		Provider:    cfg.AI.Provider,
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize text generation", slog.Any("error", err))
		os.Exit(1)
	}
	schema := nl2sql.SalesSchema.WithTable(cfg.Store.Table)
	agent := nl2sql.NewAgent(generator, schema, cfg.Report.PreviewRows)

	var engine query.Engine = sqlstore.NewEngine(db)
	if cfg.Report.SQLGuard {
		engine = report.Guarded(engine, nl2sql.Guard{Table: schema.Table}.Check)
	}

	readiness := []api.ReadinessCheck{api.CheckStore(sqlstore.HealthCheck(db))}
	deps := api.Dependencies{
		Logger:            logger,
		DependencyTimeout: time.Second,
		Scorer:            fraud.NewScorer(classifier, logger),
		Reports:           report.NewPipeline(agent, engine, logger),
		Sessions:          session.NewStore[report.Turn](cfg.Report.MaxSessions),
		Schema:            schema,
		UI:                uistatic.Handler(),
	}

	if cfg.Archive.Enabled {
		archiveStore, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize report archive", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Archive = report.NewArchiver(archiveStore, logger)
		readiness = append(readiness, archiveStore.Ping)
	}
	deps.Readiness = api.CombineReadinessChecks(readiness...)

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("store_driver", cfg.Store.Driver),
			slog.String("ai_provider", cfg.AI.Provider),
			slog.Bool("archive", cfg.Archive.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
