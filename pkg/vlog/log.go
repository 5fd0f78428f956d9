// Package vlog wraps zerolog: a package-level Logger, a Config/Init pair,
// and With* helpers that attach
// the structured fields the core's operations need (member, slot, term).
// Every recoverable failure in the core logs through here, never through
// fmt.Println or the standard log package, and always carries a "member"
// field so multi-member test harnesses can tell replicas' log lines apart.
package vlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger instance. Init must be called once
// during startup before any component logs; until then Logger is the
// zero-value zerolog.Logger, which has no writer and emits nothing.
var Logger zerolog.Logger

// Level names the configured minimum severity.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithMember creates a child logger prefixed with the owning Data Group
// Member's header key; every recoverable failure log line carries this
// field.
func WithMember(header string) zerolog.Logger {
	return Logger.With().Str("member", header).Logger()
}

// WithSlot attaches a slot field to an existing logger, e.g.
// vlog.WithMember(header).With().Int32("slot", int32(slot)).Logger().
func WithSlot(l zerolog.Logger, slot int32) zerolog.Logger {
	return l.With().Int32("slot", slot).Logger()
}
