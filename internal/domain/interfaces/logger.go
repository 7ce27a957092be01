// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that adds fields to every entry
	With(fields ...Field) Logger
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// With returns the same no-op logger
func (n *NoOpLogger) With(_ ...Field) Logger { return n }

// StdoutLogger writes plain "LEVEL: msg key=value" lines. Constructors fall back to it when no logger is given.
type StdoutLogger struct {
	Out    io.Writer // defaults to stderr
	fields []Field
}

// Debug logs debug-level messages
func (s *StdoutLogger) Debug(msg string, fields ...Field) { s.log("DEBUG", msg, fields) }

// Info logs informational messages
func (s *StdoutLogger) Info(msg string, fields ...Field) { s.log("INFO", msg, fields) }

// Warn logs warning messages
func (s *StdoutLogger) Warn(msg string, fields ...Field) { s.log("WARN", msg, fields) }

// Error logs error messages
func (s *StdoutLogger) Error(msg string, fields ...Field) { s.log("ERROR", msg, fields) }

// With returns a child logger carrying extra fields
func (s *StdoutLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	merged = append(merged, fields...)
	return &StdoutLogger{Out: s.Out, fields: merged}
}

func (s *StdoutLogger) log(level, msg string, fields []Field) {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}

	var b strings.Builder
	b.WriteString(level)
	b.WriteString(": ")
	b.WriteString(msg)
	for _, f := range append(append([]Field{}, s.fields...), fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	_, _ = fmt.Fprintln(out, b.String())
}
