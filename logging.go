package treecorr

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// LevelForVerbose maps the verbose setting to a log level:
//
//	0 = errors only
//	1 = warnings
//	2 = progress information
//	3 = debugging
func LevelForVerbose(verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return slog.LevelError
	case verbose == 1:
		return slog.LevelWarn
	case verbose == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewLogger builds a tint logger at the level implied by verbose.
// An empty logFile logs to stderr; otherwise records are appended to
// logFile without colour. The returned Closer releases the file and is
// a no-op for stderr.
func NewLogger(verbose int, logFile string) (*slog.Logger, io.Closer, error) {
	opts := &tint.Options{
		Level:      LevelForVerbose(verbose),
		TimeFormat: "15:04:05",
	}

	if logFile == "" {
		return slog.New(tint.NewHandler(os.Stderr, opts)), nopCloser{}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", logFile, err)
	}
	opts.NoColor = true
	return slog.New(tint.NewHandler(f, opts)), f, nil
}

// NewLoggerFromConfig is NewLogger driven by the verbose and log_file keys.
func NewLoggerFromConfig(cfg Config) (*slog.Logger, io.Closer, error) {
	return NewLogger(cfg.VerboseLevel(), cfg.LogFile)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
