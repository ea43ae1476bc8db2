package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// StdoutLogger is a structured logger that prints JSON lines.
// It implements Logger on top of a slog JSON handler.
type StdoutLogger struct {
	l *slog.Logger
}

// NewStdoutLogger creates a JSON logger writing to stdout at info level.
// component is optional and is attached as a persistent field.
func NewStdoutLogger(component string) *StdoutLogger {
	return NewLogger(os.Stdout, "info", component)
}

// NewLogger creates a JSON logger writing to w. level is one of
// debug|info|warn|error; anything else means info.
func NewLogger(w io.Writer, level string, component string) *StdoutLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	l := slog.New(h)
	if component != "" {
		l = l.With(slog.String("component", component))
	}
	return &StdoutLogger{l: l}
}

// ParseLevel maps a config string to a slog level.
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

func toAttrs(fields []Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		v := f.Value
		// slog renders error values as {} in JSON
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		args = append(args, slog.Any(f.Key, v))
	}
	return args
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) {
	s.l.Debug(msg, toAttrs(fields)...)
}

func (s *StdoutLogger) Info(msg string, fields ...Field) {
	s.l.Info(msg, toAttrs(fields)...)
}

func (s *StdoutLogger) Warn(msg string, fields ...Field) {
	s.l.Warn(msg, toAttrs(fields)...)
}

func (s *StdoutLogger) Error(msg string, fields ...Field) {
	s.l.Error(msg, toAttrs(fields)...)
}

// With returns a child logger carrying fields on every entry.
func (s *StdoutLogger) With(fields ...Field) Logger {
	return &StdoutLogger{l: s.l.With(toAttrs(fields)...)}
}
