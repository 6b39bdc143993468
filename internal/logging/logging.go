// Package logging configures the global zerolog logger and hands out
// per-component child loggers.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger. Progress output goes to stdout, so
// logs stay on stderr. level is one of debug, info, warn, error; quiet
// suppresses everything below errors.
func Setup(level string, quiet bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if quiet && lvl < zerolog.ErrorLevel {
		lvl = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(lvl)

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// Component returns a logger tagged with the emitting subsystem.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
