// File: utils/utils.go
package utils

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogArgCap bounds capability-audit string arguments: anything longer is
// truncated with an ellipsis marker before it reaches the event log.
const LogArgCap = 64

// Truncate shortens s to at most max runes, appending "…" when it cut
// anything.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// NewLogger builds the process-wide zerolog logger from a level name.
// Unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// TestLogger returns a silent logger for package tests.
func TestLogger() zerolog.Logger {
	return zerolog.Nop()
}
