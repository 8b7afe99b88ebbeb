// Package telemetry sets up the structured logger and the OpenTelemetry
// tracer provider shared by the apoptosim commands.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/trace"
)

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is text, json or auto. Auto writes text to a terminal and
	// JSON everywhere else.
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json auto"`
}

// DefaultLogConfig logs at info level in the auto format.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "auto"}
}

// ParseLevel maps a level name to its slog level. The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// NewLogger returns a logger writing to w.
func NewLogger(w io.Writer, cfg LogConfig) (*slog.Logger, error) {
	logger, _, err := NewLeveledLogger(w, cfg)
	return logger, err
}

// NewLeveledLogger is NewLogger with the level held in a LevelVar, so it
// can be changed while the logger is in use.
func NewLeveledLogger(w io.Writer, cfg LogConfig) (*slog.Logger, *slog.LevelVar, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}

	format := cfg.Format
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = "text"
		}
	}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), lv, nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), lv, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
}

// LoggerWithTrace adds the trace and span IDs of the span in ctx, if any.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}
