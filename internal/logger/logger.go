package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger from ENV and LOG_LEVEL.
func New() zerolog.Logger {
	return NewWithWriter(os.Stderr, os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
}

// NewWithWriter builds a logger writing to w. Development output is human
// readable and defaults to debug; everything else is JSON at info.
func NewWithWriter(w io.Writer, env, level string) zerolog.Logger {
	// Cloud Logging reads the level from "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(w).With().Timestamp().Logger()
	if env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}

	lvl := zerolog.InfoLevel
	if env == "development" {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	return logger.Level(lvl)
}
