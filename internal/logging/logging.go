// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up a console logger on stderr. Verbose enables debug output.
func Init(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// Quiet discards all log output. The TUI uses it so log lines do not
// corrupt the screen.
func Quiet() {
	log.Logger = zerolog.New(io.Discard)
}

// ToFile sends log output to w without colors.
func ToFile(w io.Writer) {
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// WithComponent returns the global logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
