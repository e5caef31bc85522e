package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

var logger *slog.Logger

// initLogging installs a charmbracelet handler behind slog. --verbose lowers
// the level to debug.
func initLogging() {
	level := log.InfoLevel
	if viper.GetBool("verbose") {
		level = log.DebugLevel
	}

	logger = newLogger(os.Stderr, level)
	slog.SetDefault(logger)
}

func newLogger(w io.Writer, level log.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	return slog.New(handler)
}

func cmdLog() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
