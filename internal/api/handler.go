package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerlens/ledgerlens/internal/auth"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/fraud"
	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/report"
	"github.com/ledgerlens/ledgerlens/internal/session"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

type ReadinessCheck func(ctx context.Context) error

type FraudScorer interface {
	Score(ctx context.Context, raw string) (fraud.Verdict, error)
}

type ReportRunner interface {
	Run(ctx context.Context, question string, history *session.History) (report.Turn, error)
}

type ReportArchive interface {
	ArchiveTurn(ctx context.Context, sessionID string, turn report.Turn) error
	Open(ctx context.Context, sessionID, turnID string, item int, format string) (io.ReadCloser, storage.ObjectInfo, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Scorer            FraudScorer
	Reports           ReportRunner
	Sessions          *session.Store[report.Turn]
	Archive           ReportArchive
	Schema            nl2sql.Schema
	UI                http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore[report.Turn](cfg.Report.MaxSessions)
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	authenticate := deps.AuthMiddleware
	if cfg.Auth.Required && authenticate == nil {
		if deps.Logger != nil {
			deps.Logger.Error("auth required but auth middleware missing")
		}
		authenticate = func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		}
	}
	protect := func(pattern, role string, handler http.HandlerFunc) {
		var h http.Handler = auth.RequireRole(role)(handler)
		if cfg.Auth.Required {
			h = authenticate(h)
		}
		mux.Handle(pattern, h)
	}

	protect("GET /v1/fraud/samples", auth.RoleFraudScorer, func(w http.ResponseWriter, r *http.Request) {
		handleFraudSamples(w, r)
	})
	protect("POST /v1/fraud/predict", auth.RoleFraudScorer, func(w http.ResponseWriter, r *http.Request) {
		handleFraudPredict(deps, w, r)
	})
	protect("GET /v1/report/schema", auth.RoleReportReader, func(w http.ResponseWriter, r *http.Request) {
		handleReportSchema(deps, w, r)
	})
	protect("POST /v1/report/ask", auth.RoleReportReader, func(w http.ResponseWriter, r *http.Request) {
		handleReportAsk(deps, w, r)
	})
	protect("GET /v1/report/history", auth.RoleReportReader, func(w http.ResponseWriter, r *http.Request) {
		handleReportHistory(deps, w, r)
	})
	protect("GET /v1/report/turns/{turn}/items/{item}/{file}", auth.RoleReportReader, func(w http.ResponseWriter, r *http.Request) {
		handleReportExport(deps, w, r)
	})

	if deps.UI != nil {
		mux.Handle("GET /{path...}", deps.UI)
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		chimw.RealIP,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	middlewares = append(middlewares, chimw.Recoverer, observability.MetricsMiddleware)
	return chain(mux, middlewares...)
}

func CheckStore(ping func(ctx context.Context) error) ReadinessCheck {
	return func(ctx context.Context) error {
		if ping == nil {
			return errors.New("store is not configured")
		}
		return ping(ctx)
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
