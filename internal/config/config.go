// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable is missing or malformed, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

// Store modes.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration for the review service.
type Config struct {
	Env               string
	Port              string
	GRPCPort          string
	MetricsPort       string
	StoreMode         string
	DatabaseURL       string
	DBMaxConns        int32
	RedisURL          string // optional: notifications stay in-process without it
	FixturesPath      string // memory mode only; empty means the bundled fixtures
	StrictTransitions bool
	StatsSchedule     string // cron spec for the aggregation job
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Env:           os.Getenv("ENV"),
		Port:          getEnv("REVIEW_PORT", "8083"),
		GRPCPort:      getEnv("REVIEW_GRPC_PORT", "9083"),
		MetricsPort:   getEnv("METRICS_PORT", "9091"),
		StoreMode:     getEnv("STORE_MODE", StoreMemory),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    16,
		RedisURL:      os.Getenv("REDIS_URL"),
		FixturesPath:  os.Getenv("FIXTURES_PATH"),
		StatsSchedule: getEnv("STATS_INTERVAL", "@every 1m"),
	}

	switch cfg.StoreMode {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_MODE=%s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("STORE_MODE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.StoreMode)
	}

	if s := os.Getenv("STRICT_TRANSITIONS"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("STRICT_TRANSITIONS must be a boolean, got %q", s)
		}
		cfg.StrictTransitions = v
	}

	if s := os.Getenv("DB_MAX_CONNS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", s)
		}
		cfg.DBMaxConns = int32(v)
	}

	if _, err := cron.ParseStandard(cfg.StatsSchedule); err != nil {
		return nil, fmt.Errorf("STATS_INTERVAL is not a valid cron spec: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
