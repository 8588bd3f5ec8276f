package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// SetupHandlerText returns a text slog handler writing to writer (stdout when
// nil).  Timestamps are only reported at debug and trace so the startup
// lines stay readable in container logs.
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}

	reportCaller := false
	reportTimestamp := false
	lvl := log.InfoLevel
	switch strings.ToLower(logLevel) {
	case "trace":
		reportCaller = true
		reportTimestamp = true
		lvl = log.DebugLevel
	case "debug":
		reportTimestamp = true
		lvl = log.DebugLevel
	case "info":
		lvl = log.InfoLevel
	case "warn", "warning":
		lvl = log.WarnLevel
	case "error":
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: reportTimestamp,
		ReportCaller:    reportCaller,
		Level:           lvl,
	})
}

// NewLogger builds a logger for the given level and writer.
func NewLogger(logLevel string, writer io.Writer) *slog.Logger {
	return slog.New(SetupHandlerText(logLevel, writer))
}

// SetupLogger configures the default logger based on provided log level
func SetupLogger(logLevel string) *slog.Logger {
	logger := NewLogger(logLevel, nil)
	slog.SetDefault(logger)
	return logger
}

// StartupLogger returns a logger on the same output as logger that always
// emits Info records, whatever level logger was configured with.  The
// startup lines go through it so raising LOG_LEVEL cannot silence them.
func StartupLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if cl, ok := logger.Handler().(*log.Logger); ok {
		if cl.GetLevel() <= log.InfoLevel {
			return logger
		}
		clone := cl.With()
		clone.SetLevel(log.InfoLevel)
		return slog.New(clone)
	}
	return slog.New(infoFloor{logger.Handler()})
}

// infoFloor enables Info and above on handlers configured more strictly.
type infoFloor struct {
	slog.Handler
}

func (h infoFloor) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.Handler.Enabled(ctx, level)
}

func (h infoFloor) WithAttrs(attrs []slog.Attr) slog.Handler {
	return infoFloor{h.Handler.WithAttrs(attrs)}
}

func (h infoFloor) WithGroup(name string) slog.Handler {
	return infoFloor{h.Handler.WithGroup(name)}
}
