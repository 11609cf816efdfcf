package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewText builds a text-format logger writing to w at the given level.
func NewText(w io.Writer, level slog.Level) *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// Discard returns a logger that drops every record.
func Discard() *SlogLogger {
	return NewText(io.Discard, slog.LevelError)
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

// Printf logs at info level. Together with Fatalf it lets the logger stand in
// for printf-style loggers such as goose's.
func (s *SlogLogger) Printf(format string, v ...any) {
	s.l.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. It does not exit; the caller gets the error
// back from whatever operation failed.
func (s *SlogLogger) Fatalf(format string, v ...any) {
	s.l.Error(fmt.Sprintf(format, v...))
}
