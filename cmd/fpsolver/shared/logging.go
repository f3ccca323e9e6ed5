package shared

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger builds the stderr logger for a command. format is "text" or
// "json".
func SetupLogger(debug bool, format string) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}
	if format == "json" {
		opts.Formatter = log.JSONFormatter
		opts.TimeFormat = time.RFC3339Nano
	}
	return log.NewWithOptions(os.Stderr, opts)
}
