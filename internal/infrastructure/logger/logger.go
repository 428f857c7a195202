// Package logger builds the zerolog root logger for the service.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "transactor"

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or console
}

// New builds the root logger. Every event carries the service name so
// aggregated logs from the account and notification services stay
// attributable.
func New(cfg Config) zerolog.Logger {
	output := io.Writer(os.Stdout)
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Caller().
		Logger()
}

var levels = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
}

func parseLevel(level string) zerolog.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return zerolog.InfoLevel
}
