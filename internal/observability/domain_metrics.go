package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fraudPredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_fraud_predictions_total",
			Help: "Total number of fraud predictions by label.",
		},
		[]string{"label"},
	)
	fraudInputErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_fraud_input_errors_total",
			Help: "Total number of rejected fraud scoring inputs by error kind.",
		},
		[]string{"kind"},
	)
	reportTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_report_turns_total",
			Help: "Total number of report agent chat turns by status.",
		},
		[]string{"status"},
	)
	reportStatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerlens_report_statements_total",
			Help: "Total number of generated SQL statements executed by outcome.",
		},
		[]string{"outcome"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerlens_llm_request_duration_seconds",
			Help:    "Latency of text-generation requests by purpose.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"purpose"},
	)
)

func init() {
	prometheus.MustRegister(
		fraudPredictionsTotal,
		fraudInputErrorsTotal,
		reportTurnsTotal,
		reportStatementsTotal,
		llmRequestDurationSeconds,
	)
}

func ObserveFraudPrediction(label string) {
	fraudPredictionsTotal.WithLabelValues(label).Inc()
}

func IncrementFraudInputError(kind string) {
	fraudInputErrorsTotal.WithLabelValues(kind).Inc()
}

func ObserveReportTurn(status string) {
	reportTurnsTotal.WithLabelValues(status).Inc()
}

func ObserveStatement(failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	reportStatementsTotal.WithLabelValues(outcome).Inc()
}

func ObserveLLMRequest(purpose string, elapsed time.Duration) {
	llmRequestDurationSeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}
