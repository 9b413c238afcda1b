package salesdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Output    string
	Rows      int
	Seed      int64
	StartYear int
	Years     int
	Customers int
	// StoreDSN, when set, names a DuckDB file the CSV is loaded into.
	StoreDSN string
	Table    string
}

func DefaultConfig() Config {
	return Config{
		Output:    "sales_data.csv",
		Rows:      2823,
		Seed:      time.Now().UTC().UnixNano(),
		StartYear: 2003,
		Years:     3,
		Customers: 92,
		Table:     "sales_data",
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "LEDGERLENS_DEMO_OUTPUT", &cfg.Output); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LEDGERLENS_DEMO_ROWS", &cfg.Rows); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "LEDGERLENS_DEMO_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LEDGERLENS_DEMO_START_YEAR", &cfg.StartYear); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LEDGERLENS_DEMO_YEARS", &cfg.Years); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "LEDGERLENS_DEMO_CUSTOMERS", &cfg.Customers); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LEDGERLENS_DEMO_STORE_DSN", &cfg.StoreDSN); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "LEDGERLENS_STORE_TABLE", &cfg.Table); err != nil {
		return Config{}, err
	}

	if cfg.Output == "" {
		return Config{}, fmt.Errorf("LEDGERLENS_DEMO_OUTPUT is required")
	}
	if cfg.Rows <= 0 {
		return Config{}, fmt.Errorf("LEDGERLENS_DEMO_ROWS must be > 0")
	}
	if cfg.StartYear < 1900 || cfg.StartYear > 9000 {
		return Config{}, fmt.Errorf("LEDGERLENS_DEMO_START_YEAR out of range: %d", cfg.StartYear)
	}
	if cfg.Years <= 0 {
		return Config{}, fmt.Errorf("LEDGERLENS_DEMO_YEARS must be > 0")
	}
	if cfg.Customers <= 0 {
		return Config{}, fmt.Errorf("LEDGERLENS_DEMO_CUSTOMERS must be > 0")
	}
	if cfg.Table == "" {
		return Config{}, fmt.Errorf("LEDGERLENS_STORE_TABLE is required")
	}
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
