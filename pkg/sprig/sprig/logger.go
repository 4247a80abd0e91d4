// Package sprig provides a public API for embedding the sprig HTML query
// engine: a fluent, caching wrapper over the selector interpreter.
package sprig

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/sprig/pkg/sprig/parser"
)

// Logger receives diagnostic output from queries.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// defaultStdoutLogger writes to stdout.
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...any)     { fmt.Print(formatLogValues(values...)) }
func (l *defaultStdoutLogger) LogLine(values ...any) { fmt.Println(formatLogValues(values...)) }

// DefaultLogger is the logger used when none is specified.
var DefaultLogger Logger = &defaultStdoutLogger{}

// writerLogger writes to an io.Writer
type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, formatLogValues(values...))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, formatLogValues(values...))
}

// WriterLogger returns a logger that writes to an io.Writer
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger captures log output for later retrieval
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

// NewBufferedLogger creates a new buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{
		lines: make([]string, 0),
	}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(formatLogValues(values...))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Flush any pending buffer content as a line
	line := l.buf.String() + formatLogValues(values...)
	l.lines = append(l.lines, line)
	l.buf.Reset()
}

// String returns all captured output as a single string
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := strings.Join(l.lines, "\n")
	if len(l.lines) > 0 {
		result += "\n"
	}
	// Include any pending buffer content
	if l.buf.Len() > 0 {
		result += l.buf.String()
	}
	return result
}

// Lines returns all captured log lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Make a copy to avoid race conditions
	result := make([]string, len(l.lines))
	copy(result, l.lines)
	return result
}

// Reset clears all captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
	l.buf.Reset()
}

// nullLogger discards all output
type nullLogger struct{}

func (l *nullLogger) Log(values ...any)     {}
func (l *nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return &nullLogger{}
}

// loggerTracer adapts a Logger into a parse tracer.
type loggerTracer struct {
	logger Logger
}

func (t *loggerTracer) Trace(format string, args ...any) {
	t.logger.LogLine(fmt.Sprintf(format, args...))
}

// TracerFromLogger returns a parse tracer that writes trace lines through a
// Logger.
func TracerFromLogger(l Logger) parser.Tracer {
	return &loggerTracer{logger: l}
}

// formatLogValues formats values for logging, space-separated.
func formatLogValues(values ...any) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
