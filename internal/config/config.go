package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"stream_ledger/internal/logger"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	AppPort       string
	StoreBackend  string
	DatabaseURL   string
	JWTSecret     string
	AllowedOrigin string

	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ledger retry loop
	LedgerMaxAttempts int

	// Event dispatch
	EventWorkers   int
	EventQueueSize int

	// Sweeps
	SweepSchedule   string
	SweepLockTTL    time.Duration
	ReaperBatchSize int

	// API limits
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from env (and .env when present).
func Load() *Config {
	cfg, err := load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:           getenv("APP_PORT", "8080"),
		StoreBackend:      getenv("STORE_BACKEND", StoreBackendPostgres),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogJSON:           os.Getenv("LOG_JSON") == "true",
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getenvInt("REDIS_DB", 0),
		LedgerMaxAttempts: getenvInt("LEDGER_MAX_ATTEMPTS", 25),
		EventWorkers:      getenvInt("EVENT_WORKERS", 4),
		EventQueueSize:    getenvInt("EVENT_QUEUE_SIZE", 1024),
		SweepSchedule:     getenv("SWEEP_SCHEDULE", "@every 1m"),
		SweepLockTTL:      time.Duration(getenvInt("SWEEP_LOCK_TTL_SECONDS", 55)) * time.Second,
		ReaperBatchSize:   getenvInt("REAPER_BATCH_SIZE", 100),
		APIRateLimit:      getenvInt("API_RATE_LIMIT", 120),
		APIRateWindow:     time.Duration(getenvInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.ReaperBatchSize > 500 {
		cfg.ReaperBatchSize = 500
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt returns a positive int from env, or def when unset or invalid.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
