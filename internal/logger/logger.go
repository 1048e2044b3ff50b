// Package logger configures the application's structured logging.
//
// It uses zerolog for all log output and provides the specialized logger
// handed to the pgx tracelog adapter for SQL statement logging.
package logger

import (
	"os"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// New builds the application logger.
//
// format "console" produces human-readable output for local development;
// anything else produces JSON for log pipelines. An unparseable level
// falls back to info rather than failing startup over a log knob.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(lvl).With().Timestamp().Logger()
}

// NewPgxLogger builds the logger used for SQL statement tracing. It writes
// console format to stderr: SQL tracing only runs in the local environment
// where pretty output beats JSON.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// PgxTraceLevel maps a zerolog level onto pgx tracelog verbosity.
func PgxTraceLevel(level zerolog.Level) tracelog.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case level == zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case level == zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}
