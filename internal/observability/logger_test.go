package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/config"
)

func TestNewLoggerAddsServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{
		Profile:       config.ProfileTest,
		Service:       config.ServiceConfig{Name: "ledgerlens-api"},
		Observability: config.ObservabilityConfig{LogLevel: slog.LevelInfo, LogJSON: true},
	}
	NewLogger(cfg, &buf).Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["service"] != "ledgerlens-api" || line["profile"] != "test" {
		t.Fatalf("log line = %#v", line)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Observability: config.ObservabilityConfig{LogLevel: slog.LevelWarn}}
	NewLogger(cfg, &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
