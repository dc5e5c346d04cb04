package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger wires the process logger: human-readable text on stderr
// plus JSON records appended to logFile so past runs stay greppable.
// When the file cannot be opened the logger degrades to stderr alone
// rather than failing startup. The returned func closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(handler), func() error { return nil }
	}

	return fanoutLogger(os.Stderr, file, level), file.Close
}

// SetupLoggerWithWriters builds the same dual-handler logger over
// arbitrary writers so tests can assert on what gets logged where.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return fanoutLogger(stderr, file, level)
}

func fanoutLogger(text, json io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(text, opts),
		slog.NewJSONHandler(json, opts),
	))
}
