package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Store         StoreConfig
	Model         ModelConfig
	AI            AIConfig
	Report        ReportConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig describes the local relational store queried by the report agent.
type StoreConfig struct {
	Driver          string
	DSN             string
	Table           string
	SeedCSV         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type ModelConfig struct {
	Path              string
	SharedLibraryPath string
	InputName         string
	OutputName        string
}

type AIConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type ReportConfig struct {
	PreviewRows int
	SQLGuard    bool
	MaxSessions int
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("LEDGERLENS_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid LEDGERLENS_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "LEDGERLENS_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "LEDGERLENS_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "LEDGERLENS_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "LEDGERLENS_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "LEDGERLENS_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "LEDGERLENS_STORE_DRIVER", &cfg.Store.Driver) },
		func() error { return applyString(lookup, "LEDGERLENS_STORE_DSN", &cfg.Store.DSN) },
		func() error { return applyString(lookup, "LEDGERLENS_STORE_TABLE", &cfg.Store.Table) },
		func() error { return applyString(lookup, "LEDGERLENS_STORE_SEED_CSV", &cfg.Store.SeedCSV) },
		func() error { return applyInt(lookup, "LEDGERLENS_STORE_MAX_OPEN_CONNS", &cfg.Store.MaxOpenConns) },
		func() error { return applyInt(lookup, "LEDGERLENS_STORE_MAX_IDLE_CONNS", &cfg.Store.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "LEDGERLENS_STORE_CONN_MAX_IDLE_TIME", &cfg.Store.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "LEDGERLENS_STORE_CONN_MAX_LIFETIME", &cfg.Store.ConnMaxLifetime)
		},
		func() error { return applyString(lookup, "LEDGERLENS_MODEL_PATH", &cfg.Model.Path) },
		func() error { return applyString(lookup, "LEDGERLENS_MODEL_ORT_LIBRARY", &cfg.Model.SharedLibraryPath) },
		func() error { return applyString(lookup, "LEDGERLENS_MODEL_INPUT_NAME", &cfg.Model.InputName) },
		func() error { return applyString(lookup, "LEDGERLENS_MODEL_OUTPUT_NAME", &cfg.Model.OutputName) },
		func() error { return applyString(lookup, "LEDGERLENS_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "LEDGERLENS_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "LEDGERLENS_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "LEDGERLENS_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "LEDGERLENS_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "LEDGERLENS_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyInt(lookup, "LEDGERLENS_REPORT_PREVIEW_ROWS", &cfg.Report.PreviewRows) },
		func() error { return applyBool(lookup, "LEDGERLENS_REPORT_SQL_GUARD", &cfg.Report.SQLGuard) },
		func() error { return applyInt(lookup, "LEDGERLENS_REPORT_MAX_SESSIONS", &cfg.Report.MaxSessions) },
		func() error { return applyBool(lookup, "LEDGERLENS_ARCHIVE_ENABLED", &cfg.Archive.Enabled) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_REGION", &cfg.Archive.Region) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_BUCKET", &cfg.Archive.Bucket) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey) },
		func() error { return applyBool(lookup, "LEDGERLENS_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL) },
		func() error { return applyString(lookup, "LEDGERLENS_ARCHIVE_PREFIX", &cfg.Archive.Prefix) },
		func() error {
			return applyBool(lookup, "LEDGERLENS_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket)
		},
		func() error { return applyBool(lookup, "LEDGERLENS_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "LEDGERLENS_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "LEDGERLENS_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "LEDGERLENS_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	// Provider-specific credentials are honoured when the generic key is unset.
	if cfg.AI.APIKey == "" {
		fallbackKey := "OPENAI_API_KEY"
		if cfg.AI.Provider == "gemini" {
			fallbackKey = "GEMINI_API_KEY"
		}
		if err := applyString(lookup, fallbackKey, &cfg.AI.APIKey); err != nil {
			return Config{}, err
		}
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Store.Driver {
	case "duckdb", "pgx":
	default:
		return Config{}, fmt.Errorf("invalid LEDGERLENS_STORE_DRIVER: %q", cfg.Store.Driver)
	}
	switch cfg.AI.Provider {
	case "openai", "gemini":
	default:
		return Config{}, fmt.Errorf("invalid LEDGERLENS_AI_PROVIDER: %q", cfg.AI.Provider)
	}
	if cfg.Store.Table == "" {
		return Config{}, fmt.Errorf("store table is required")
	}
	if cfg.Report.PreviewRows <= 0 {
		return Config{}, fmt.Errorf("invalid LEDGERLENS_REPORT_PREVIEW_ROWS: must be > 0")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "ledgerlens-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Driver:          "duckdb",
			DSN:             "sales.duckdb",
			Table:           "sales_data",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 0,
			ConnMaxLifetime: 0,
		},
		Model: ModelConfig{
			Path:       "fraud_model.onnx",
			InputName:  "float_input",
			OutputName: "output_label",
		},
		AI: AIConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Report: ReportConfig{
			PreviewRows: 10,
			SQLGuard:    false,
			MaxSessions: 1000,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "ledgerlens-reports",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
