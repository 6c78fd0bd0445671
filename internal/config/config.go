package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "BRIDGE_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Processor ProcessorConfig `koanf:"processor"`
	Retry     RetryConfig     `koanf:"retry"`
	Cache     CacheConfig     `koanf:"cache"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
	// PublicBaseURL is the externally reachable origin used to build webhook URLs.
	PublicBaseURL string `koanf:"public_base_url" validate:"required,url"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type LedgerConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required,url"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type ProcessorConfig struct {
	// APIBaseURL overrides the Stripe API origin (stripe-mock in development).
	APIBaseURL        string        `koanf:"api_base_url" validate:"omitempty,url"`
	ConnTimeout       time.Duration `koanf:"conn_timeout" validate:"required"`
	MaxNetworkRetries int64         `koanf:"max_network_retries"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries"`
}

type CacheConfig struct {
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	IdentityTTL   time.Duration `koanf:"identity_ttl"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=text json"`
}

type WorkerConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Interval   time.Duration `koanf:"interval" validate:"required"`
	StaleAfter time.Duration `koanf:"stale_after" validate:"required"`
	BatchSize  int           `koanf:"batch_size" validate:"required"`
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                   "development",
		"server.port":                   "8080",
		"server.read_timeout":           "15s",
		"server.write_timeout":          "30s",
		"server.idle_timeout":           "60s",
		"database.ssl_mode":             "disable",
		"database.max_open_conns":       10,
		"database.max_idle_conns":       2,
		"database.conn_max_lifetime":    "1h",
		"database.conn_max_idle_time":   "30m",
		"ledger.base_url":               "https://api.rehive.com/3",
		"ledger.conn_timeout":           "10s",
		"processor.conn_timeout":        "30s",
		"processor.max_network_retries": 2,
		"retry.base_delay":              "200ms",
		"retry.max_retries":             3,
		"cache.identity_ttl":            "60s",
		"logger.format":                 "text",
		"logger.level":                  "info",
		"worker.interval":               "1m",
		"worker.stale_after":            "15m",
		"worker.batch_size":             50,
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load config defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// NewLogger builds the process logger from the configured level and format.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
