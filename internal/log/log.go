package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *stdlog.Logger
	loggerOnce sync.Once

	levelMu  sync.RWMutex
	minLevel = LevelInfo
)

// initLogger initializes the global logger to write to stderr. Timestamps
// are rendered by logWithLevel, so the stdlib flags stay empty.
func initLogger() {
	loggerOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", 0)
	})
}

// SetLevel changes the minimum level that is written.
func SetLevel(l Level) {
	initLogger()
	levelMu.Lock()
	minLevel = l
	levelMu.Unlock()
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// Level. Unknown or empty values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

// Logger carries a fixed set of key/value pairs that are prepended to every
// line, e.g. the component name or a request id.
type Logger struct {
	kv []any
}

// With returns a Logger that always logs the given pairs.
func With(kv ...any) *Logger {
	return &Logger{kv: append([]any(nil), kv...)}
}

// With returns a child Logger with additional pairs.
func (l *Logger) With(kv ...any) *Logger {
	merged := make([]any, 0, len(l.kv)+len(kv))
	merged = append(merged, l.kv...)
	merged = append(merged, kv...)
	return &Logger{kv: merged}
}

func (l *Logger) Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, l.merge(kv)...)
}

func (l *Logger) Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, l.merge(kv)...)
}

func (l *Logger) Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, l.merge(kv)...)
}

func (l *Logger) Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, msg, append([]any{"err", err}, l.merge(kv)...)...)
}

func (l *Logger) merge(kv []any) []any {
	if l == nil || len(l.kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(l.kv)+len(kv))
	out = append(out, l.kv...)
	return append(out, kv...)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}
	logger.Println(formatLine(time.Now(), level, msg, kv...))
}

// formatLine renders one log line:
// 2025-01-01T00:00:00Z [LEVEL] msg key=value ...
func formatLine(ts time.Time, level Level, msg string, kv ...any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteString(" [")
	b.WriteString(string(level))
	b.WriteString("] ")
	b.WriteString(msg)
	b.WriteString(formatKVs(kv...))
	return b.String()
}

func rank(l Level) int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func enabled(level Level) bool {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return rank(level) >= rank(minLevel)
}

func formatKVs(kv ...any) string {
	var b strings.Builder
	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(quoteIfNeeded(fmt.Sprint(kv[i+1])))
	}
	// If odd number of args, last one is ignored.
	return b.String()
}

// quoteIfNeeded wraps values containing spaces so that lines stay
// splittable on whitespace.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
