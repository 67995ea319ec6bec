// Package logger builds the zerolog loggers used across the service.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"veterinary-backend/config"
)

// New returns the root application logger.
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Logging.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "veterinary-backend").
		Str("env", cfg.Env).
		Logger()
}
