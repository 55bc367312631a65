package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w with timestamps and caller reporting.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard is a logger for tests and tools that want no output.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
