// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded from
// a `.env` file), maps them into structured Go types, and validates that
// required values are present so the application fails fast on bad or
// missing configuration.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment
	// before anything reads env vars.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Env vars use the EMUPOST_ prefix and "." for nesting:
// EMUPOST_DATABASE.HOST -> database.host -> Config.Database.Host.

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional; defaults are injected
// when it is absent.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Bot           BotConfig            `koanf:"bot" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool
// tuning. MinConns/MaxConns bound the pool; ConnMaxLifetime and
// ConnMaxIdleTime (seconds) force connection recycling; StatementTimeout
// (seconds) becomes the session statement_timeout.
type DatabaseConfig struct {
	Host             string `koanf:"host" validate:"required"`
	Port             int    `koanf:"port" validate:"required"`
	User             string `koanf:"user" validate:"required"`
	Password         string `koanf:"password" validate:"required"`
	Name             string `koanf:"name" validate:"required"`
	SSLMode          string `koanf:"ssl_mode" validate:"required"`
	MinConns         int    `koanf:"min_conns" validate:"required"`
	MaxConns         int    `koanf:"max_conns" validate:"required"`
	ConnMaxLifetime  int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime  int    `koanf:"conn_max_idle_time" validate:"required"`
	StatementTimeout int    `koanf:"statement_timeout" validate:"required"`
}

// RedisConfig contains Redis connection details; Address is "host:port".
// Redis backs the notification job queue and shows up in health checks.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// BotConfig stores Telegram bot credentials and the secrets guarding the
// webhook surface.
type BotConfig struct {
	Token string `koanf:"token" validate:"required"`

	// WebhookSecret signs payloads arriving at the external webhook
	// endpoint (HMAC-SHA256). Empty disables signature verification,
	// which is only acceptable in local development.
	WebhookSecret string `koanf:"webhook_secret"`

	// APIBaseURL is the Telegram Bot API base. Overridable for tests.
	APIBaseURL string `koanf:"api_base_url"`
}

// New loads configuration from environment variables, validates it, and
// applies observability defaults. Any missing required value is fatal:
// a half-configured process must not come up.
func New() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")

	err := k.Load(env.Provider("EMUPOST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "EMUPOST_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal config")
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("config validation failed")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "emupost"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if mainConfig.Bot.APIBaseURL == "" {
		mainConfig.Bot.APIBaseURL = "https://api.telegram.org"
	}

	return mainConfig, nil
}
