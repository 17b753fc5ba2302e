// Package logging configures zerolog for the Sight client and proxy.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var validate = validator.New()

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written.
	Level LogLevel `validate:"omitempty,oneof=debug info warn warning error"`

	// Pretty switches from JSON to console output.
	Pretty bool

	// Service is added to every entry when set.
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// ParseLevel validates a textual level.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "warning" {
		level = LevelWarn
	}
	if err := validate.Var(string(level), "oneof=debug info warn error"); err != nil {
		return "", errors.Newf("invalid log level %q", s)
	}
	return level, nil
}

// Setup configures and installs the global zerolog logger.
func Setup(cfg Config) (zerolog.Logger, error) {
	if err := validate.Struct(cfg); err != nil {
		return zerolog.Nop(), errors.Wrap(err, "invalid logging config")
	}

	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger, nil
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level guidelines:
//
// Debug: per-request flow, cache hits and stores, worker completion.
// Info: login, fan-out start and completion, proxy startup and shutdown.
// Warn: concurrency clamps, cache failures falling back to the network,
//   non-2xx Sight responses.
// Error: transport failures, failed aggregations in the proxy.
//
// Common fields: component, endpoint, path, status, error_class, offset,
// limit, total, pages, duration.
