// Package logger builds the zerolog loggers used by the monitor and the CLI.
package logger

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w, or a disabled logger when silent.
func New(w io.Writer, silent bool) zerolog.Logger {
	if silent {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// JSON returns a structured logger writing one JSON object per line.
func JSON(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ForFormat returns a console or JSON logger by name.
func ForFormat(w io.Writer, format string) (zerolog.Logger, error) {
	switch format {
	case "", "console":
		return New(w, false), nil
	case "json":
		return JSON(w), nil
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want console or json)", format)
	}
}
