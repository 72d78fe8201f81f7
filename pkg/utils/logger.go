package utils

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds a slog.Logger rendered by charmbracelet/log. Unknown
// levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
	return slog.New(handler)
}
