package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewJSONLogger writes JSON records to w at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func NewJSONLogger(w io.Writer, level string) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return NewSlogLogger(slog.New(h))
}

// NewNop returns a logger that discards everything.
func NewNop() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
