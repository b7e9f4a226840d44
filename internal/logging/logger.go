// Package logging configures the zerolog logger shared by the CLI and the core packages.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config holds logging configuration.
type Config struct {
	Verbose bool
	Out     io.Writer // defaults to os.Stderr
}

// New builds a console logger. Colour is only enabled when Out is a terminal.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	noColor := true
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		noColor = false
	}

	writer := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = noColor
		w.TimeFormat = time.RFC3339
	})

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
