package config

import (
	"fmt"
	"time"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/tracing"
)

// Idempotency store backends.
const (
	IdempotencyMemory = "memory"
	IdempotencyRedis  = "redis"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Base holds the settings every HoppyHub service shares. Services embed it
// and add their own port, database name and collaborators.
type Base struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"hoppyhub"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"hoppyhub_secret"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnableDLQ bool     `env:"KAFKA_ENABLE_DLQ" envDefault:"true"`

	// Consumer deduplication
	IdempotencyStore    string `env:"IDEMPOTENCY_STORE" envDefault:"memory"`
	IdempotencyTTLHours int    `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query and command logging
	SlowQueryThresholdMs   int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
	SlowCommandThresholdMs int `env:"LOG_SLOW_COMMAND_MS" envDefault:"1000"`
}

// Validate checks the shared settings.
func (b *Base) Validate() error {
	if b.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if b.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(b.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if b.IdempotencyStore != IdempotencyMemory && b.IdempotencyStore != IdempotencyRedis {
		return fmt.Errorf("IDEMPOTENCY_STORE must be %q or %q, got %q", IdempotencyMemory, IdempotencyRedis, b.IdempotencyStore)
	}
	if b.IdempotencyTTLHours < 1 {
		return fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be positive, got %d", b.IdempotencyTTLHours)
	}
	if b.OTELSampleRate < 0 || b.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", b.OTELSampleRate)
	}
	if b.Environment != "development" {
		if b.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", b.Environment)
		}
		if len(b.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(b.JWTSecret))
		}
	}
	return nil
}

// Postgres builds the pool configuration for dbName.
func (b *Base) Postgres(dbName string) database.PostgresConfig {
	return database.PostgresConfig{
		Host:            b.PostgresHost,
		Port:            b.PostgresPort,
		User:            b.PostgresUser,
		Password:        b.PostgresPass,
		DBName:          dbName,
		SSLMode:         b.PostgresSSL,
		MaxConns:        b.DBMaxConns,
		MinConns:        b.DBMinConns,
		MaxConnLifetime: time.Duration(b.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(b.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis builds the Redis client configuration.
func (b *Base) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     b.RedisHost,
		Port:     b.RedisPort,
		Password: b.RedisPassword,
		DB:       b.RedisDB,
	}
}

// Tracing builds the tracer configuration for service.
func (b *Base) Tracing(service string) tracing.Config {
	return tracing.Config{
		ServiceName:  service,
		Environment:  b.Environment,
		OTLPEndpoint: b.OTELEndpoint,
		SampleRate:   b.OTELSampleRate,
		Enabled:      b.OTELEnabled,
	}
}

// IdempotencyTTL is how long processed event ids are remembered.
func (b *Base) IdempotencyTTL() time.Duration {
	return time.Duration(b.IdempotencyTTLHours) * time.Hour
}

// SlowQueryThreshold is the duration above which queries are logged.
func (b *Base) SlowQueryThreshold() time.Duration {
	return time.Duration(b.SlowQueryThresholdMs) * time.Millisecond
}

// SlowCommandThreshold is the duration above which commands are logged.
func (b *Base) SlowCommandThreshold() time.Duration {
	return time.Duration(b.SlowCommandThresholdMs) * time.Millisecond
}

// ValidPort reports an error unless port is a usable TCP port.
func ValidPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s: %d", name, port)
	}
	return nil
}
