package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger is the structured logging surface the rest of the module depends on.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	mu sync.Mutex
	w  io.WriteCloser
	l  *clog.Logger
}

func NewJSONLogger(path string, debug bool) (*JSONLogger, error) {
	if path == "" {
		return NewWriterLogger(io.Discard, debug), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	lg := newLogger(f, debug)
	lg.w = f
	return lg, nil
}

// NewWriterLogger logs to w without taking ownership of it.
func NewWriterLogger(w io.Writer, debug bool) *JSONLogger {
	return newLogger(w, debug)
}

func Nop() *JSONLogger { return NewWriterLogger(io.Discard, false) }

func newLogger(w io.Writer, debug bool) *JSONLogger {
	l := clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
		Level:           clog.InfoLevel,
	})
	if debug {
		l.SetLevel(clog.DebugLevel)
	}
	return &JSONLogger{w: nopCloser{Writer: w}, l: l}
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	l.log(clog.DebugLevel, msg, fields)
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.log(clog.InfoLevel, msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.log(clog.ErrorLevel, msg, fields)
}

func (l *JSONLogger) log(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.Log(level, msg, keyvals(fields)...)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out = append(out, k, v)
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
