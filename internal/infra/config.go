package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"sgad_db"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"admin123"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"admin123"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"8000"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`

	// Kafka
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled     bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopicPrefix string `env:"KAFKA_TOPIC_PREFIX" envDefault:"sgad"`

	// Outbox consumer
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Consecutive publish failures per topic before the topic is paused.
	OutboxBreakerThreshold int           `env:"OUTBOX_BREAKER_THRESHOLD" envDefault:"5"`
	OutboxBreakerReset     time.Duration `env:"OUTBOX_BREAKER_RESET" envDefault:"30s"`
}

// LoadConfig loads an optional .env file and parses environment variables into a Config.
// Variables already present in the environment take precedence over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return ParseConfig()
}

// ParseConfig parses the current environment into a Config without touching .env.
func ParseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the services cannot start with.
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT out of range: %d", c.APIPort)
	}
	if c.DatabaseURL == "" && (c.PostgresPort <= 0 || c.PostgresPort > 65535) {
		return fmt.Errorf("POSTGRES_PORT out of range: %d", c.PostgresPort)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval)
	}
	if c.OutboxBreakerThreshold <= 0 {
		return fmt.Errorf("OUTBOX_BREAKER_THRESHOLD must be positive, got %d", c.OutboxBreakerThreshold)
	}
	if c.OutboxBreakerReset < 0 {
		return fmt.Errorf("OUTBOX_BREAKER_RESET must not be negative, got %s", c.OutboxBreakerReset)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return stripDriverSuffix(c.DatabaseURL)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// stripDriverSuffix drops a SQLAlchemy-style "+driver" from the URL scheme,
// so postgresql+psycopg2://h/d becomes postgresql://h/d.
func stripDriverSuffix(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		return base + "://" + rest
	}
	return dsn
}

// ParseLogLevel maps LOG_LEVEL onto a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", level)
	}
}

// NewLogger builds the JSON slog logger used by every process.
func NewLogger(level string) *slog.Logger {
	lvl, _ := ParseLogLevel(level)
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
