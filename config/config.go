// Package config loads the service configuration from the environment.
//
// Variables use the VET_ prefix and a double underscore for nesting, so
// VET_DATABASE__HOST ends up in Config.Database.Host. A `.env` file in the
// working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VET_"

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"

	AuthAnonymous = "anonymous"
	AuthFunction  = "function"
)

type Config struct {
	Env      string         `koanf:"env" validate:"required,oneof=local development staging production"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	RoutePrefix     string        `koanf:"route_prefix"`
	BodyLimitBytes  int           `koanf:"body_limit_bytes" validate:"min=1"`
	AllowedOrigins  string        `koanf:"allowed_origins"`
	RateLimitMax    int           `koanf:"rate_limit_max" validate:"min=0"` // 0 disables the limiter
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig describes the customer store. Connection fields are only
// required for the SQL drivers.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"required,oneof=postgres mysql memory"`
	Host            string        `koanf:"host" validate:"required_unless=Driver memory"`
	Port            int           `koanf:"port" validate:"required_unless=Driver memory"`
	User            string        `koanf:"user" validate:"required_unless=Driver memory"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required_unless=Driver memory"`
	SSLMode         string        `koanf:"ssl_mode"`
	TimeZone        string        `koanf:"time_zone"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type AuthConfig struct {
	Level        string        `koanf:"level" validate:"required,oneof=anonymous function"`
	FunctionKeys []string      `koanf:"function_keys"`
	JWTSecret    string        `koanf:"jwt_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl" validate:"min=1m"`
}

type LoggingConfig struct {
	Level              string        `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format             string        `koanf:"format" validate:"required,oneof=json console"`
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold" validate:"min=0"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Port:            "8080",
			RoutePrefix:     "/api",
			BodyLimitBytes:  4 * 1024 * 1024,
			AllowedOrigins:  "*",
			RateLimitMax:    60,
			RateLimitWindow: time.Minute,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Port:            5432,
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			Level:    AuthAnonymous,
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "json",
			SlowQueryThreshold: 200 * time.Millisecond,
		},
	}
}

// Load reads VET_* variables over the defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags first, then rules spanning several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Auth.Level == AuthFunction && len(c.Auth.Keys()) == 0 && c.Auth.JWTSecret == "" {
		return errors.New("auth level function requires function_keys or jwt_secret")
	}
	if c.Server.RoutePrefix != "" && !strings.HasPrefix(c.Server.RoutePrefix, "/") {
		return fmt.Errorf("route_prefix must start with '/': %q", c.Server.RoutePrefix)
	}
	return nil
}

// Keys returns the configured function keys without blanks. Entries may
// themselves be comma separated lists.
func (a AuthConfig) Keys() []string {
	keys := make([]string, 0, len(a.FunctionKeys))
	for _, entry := range a.FunctionKeys {
		for _, k := range strings.Split(entry, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
