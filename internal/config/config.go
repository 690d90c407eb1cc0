// Package config loads application settings from the environment and holds
// the rules and option sets of the event being run.
//
// Settings are read from UBER_-prefixed environment variables, optionally
// pre-populated from a .env file. A double underscore separates nesting
// levels, so UBER_DATABASE__URL maps to Config.Database.URL. Anything not
// present in the environment keeps its value from Default.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "UBER_"

type Config struct {
	Env      string         `koanf:"env" validate:"required,oneof=development test production"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`
	Event    EventConfig    `koanf:"event" validate:"required"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	// PublicURL prefixes links handed out in QR codes; empty means the
	// request's own host.
	PublicURL string `koanf:"public_url"`
}

// DatabaseConfig selects the driver by URL: postgres:// and postgresql://
// go to PostgreSQL, anything else is a SQLite path or DSN.
type DatabaseConfig struct {
	URL            string        `koanf:"url" validate:"required"`
	MaxOpenConns   int           `koanf:"max_open_conns" validate:"gte=1"`
	ConnectRetries int           `koanf:"connect_retries" validate:"gte=1"`
	RetryDelay     time.Duration `koanf:"retry_delay" validate:"gte=0"`
	SlowQuery      time.Duration `koanf:"slow_query"`
}

type AuthConfig struct {
	SecretKey     string        `koanf:"secret_key" validate:"required,min=16"`
	SessionMaxAge time.Duration `koanf:"session_max_age" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			URL:            "uber.db",
			MaxOpenConns:   1,
			ConnectRetries: 10,
			RetryDelay:     5 * time.Second,
			SlowQuery:      200 * time.Millisecond,
		},
		Auth: AuthConfig{
			SecretKey:     "change-me-in-production-please",
			SessionMaxAge: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Event: defaultEvent(),
	}
}

// Load overlays the environment on Default and validates the result.
func Load() (*Config, error) {
	return load(envPrefix)
}

func load(prefix string) (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var current atomic.Pointer[Config]

// Get returns the process-wide configuration, Default until Set is called.
func Get() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	cfg := Default()
	current.CompareAndSwap(nil, cfg)
	return current.Load()
}

// Set replaces the process-wide configuration.
func Set(cfg *Config) {
	current.Store(cfg)
}

// Event is shorthand for Get().Event.
func Event() EventConfig {
	return Get().Event
}

// Now is the clock used for every time-dependent rule. Tests replace it.
var Now = time.Now
