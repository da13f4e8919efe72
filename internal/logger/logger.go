// Package logger configures the application's logging.
//
// It uses zerolog for structured logs and provides a specialized
// logger for pgx query tracing in the local environment.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the application logger for the given environment.
//
// In "local" the logger writes human-friendly console output at debug
// level; everywhere else it writes JSON at info level.
func New(env string) *zerolog.Logger {
	var logger zerolog.Logger

	if env == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).
			Level(zerolog.InfoLevel).
			With().Timestamp().Str("service", "proformance").Logger()
	}

	log.Logger = logger
	return &logger
}

// NewPgxLogger returns a logger dedicated to pgx query tracing.
// SQL output is noisy, so it carries its own component field and
// inherits the given level.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", "pgx").Logger()
}

// GetPgxTraceLogLevel maps a zerolog level to a pgx tracelog level
// (tracelog counts 0=none .. 6=trace).
func GetPgxTraceLogLevel(level zerolog.Level) int {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return 6 // tracelog.LogLevelTrace
	case zerolog.InfoLevel:
		return 4 // tracelog.LogLevelInfo
	case zerolog.WarnLevel:
		return 3 // tracelog.LogLevelWarn
	case zerolog.ErrorLevel:
		return 2 // tracelog.LogLevelError
	default:
		return 0 // tracelog.LogLevelNone
	}
}
