package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const envProduction = "production"

type Config struct {
	Port       string `env:"PORT,        default=3000"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	BcryptCost int    `env:"BCRYPT_COST, default=10"`

	HTTP      HTTPConfig
	Postgres  PostgresConfig
	Session   SessionConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Telemetry TelemetryConfig
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,     default=10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,    default=15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT,     default=60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT, default=10s"`
}

type PostgresConfig struct {
	URI          string `env:"POSTGRES_URI,            default=postgres://localhost:5432/next_connect?sslmode=disable"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=10"`
	MaxIdleConns int    `env:"POSTGRES_MAX_IDLE_CONNS, default=5"`
}

type SessionConfig struct {
	Secret            string        `env:"COOKIE_SECRET"`
	TTL               time.Duration `env:"SESSION_TTL,                default=720h"`
	PruneSchedule     string        `env:"SESSION_PRUNE_SCHEDULE,     default=@every 15m"`
	SaveUninitialized bool          `env:"SESSION_SAVE_UNINITIALIZED, default=true"`
}

// RedisConfig is optional; an empty Addr disables the session cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// MongoConfig is optional; an empty URI serves the built-in greeting.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=next_connect"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE, default=true"`
	ServiceName string `env:"OTEL_SERVICE_NAME,           default=next-connect"`
}

// Production reports whether ENV selects the production profile.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), envProduction)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("config: COOKIE_SECRET is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return process(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given variables only.
func LoadFrom(ctx context.Context, vars map[string]string) (*Config, error) {
	return process(ctx, envconfig.MapLookuper(vars))
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
