package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// NewPgxLogger builds the logger used for SQL query tracing in local
// environments. It writes console-formatted output so queries and their
// arguments stay readable during development.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("component", "pgx").
		Logger()
}

// Trace log levels understood by pgx tracelog, mirrored here so callers do
// not need to import tracelog just to pick a verbosity.
const (
	pgxTraceLevelError = 2
	pgxTraceLevelInfo  = 4
	pgxTraceLevelDebug = 5
)

// GetPgxTraceLogLevel maps the app's zerolog level onto a pgx tracelog
// level. Debug logging gets full query traces; info and above only log
// failures.
func GetPgxTraceLogLevel(level zerolog.Level) int {
	switch {
	case level <= zerolog.DebugLevel:
		return pgxTraceLevelDebug
	case level == zerolog.InfoLevel:
		return pgxTraceLevelInfo
	default:
		return pgxTraceLevelError
	}
}
