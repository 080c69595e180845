package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Config is the process configuration, read from .env and the environment.
type Config struct {
	DatabaseURL   string        // empty selects the in-memory store
	Port          string
	KafkaBrokers  []string      // empty disables event publishing
	CheckInterval time.Duration // period of the recurring "check due" run
	LogLevel      string
}

const (
	defaultPort          = "8080"
	defaultCheckInterval = time.Hour
	defaultLogLevel      = "info"
)

// Load reads .env when present and then the environment. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadFile is like Load but reads the given env files, which must exist.
func LoadFile(filenames ...string) (Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getenv("PORT", defaultPort),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		CheckInterval: defaultCheckInterval,
		LogLevel:      getenv("LOG_LEVEL", defaultLogLevel),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	if v := os.Getenv("RECURRENCE_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RECURRENCE_CHECK_INTERVAL %q: %w", v, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("RECURRENCE_CHECK_INTERVAL must be positive, got %s", d)
		}
		cfg.CheckInterval = d
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// OpenDB connects to Postgres and checks the connection.
func OpenDB(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
