package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Level represents the severity of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the textual name of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "info"
	}
}

// Format represents the output format for logs
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Logger provides structured logging with bound fields
type Logger struct {
	level  Level
	format Format
	output io.Writer
	fields map[string]interface{}
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// New creates a logger writing to stdout
func New(level Level, format Format) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: os.Stdout,
		fields: make(map[string]interface{}),
	}
}

// clone copies the logger so bound fields do not leak between call sites
func (l *Logger) clone() *Logger {
	next := &Logger{
		level:  l.level,
		format: l.format,
		output: l.output,
		fields: make(map[string]interface{}, len(l.fields)+1),
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	return next
}

// WithField returns a logger with an extra bound field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	next := l.clone()
	next.fields[key] = value
	return next
}

// WithFields returns a logger with extra bound fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	next := l.clone()
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

// WithError binds an error field
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// WithComponent binds the component name, used by every subsystem at startup
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithField("component", name)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) { l.log(LevelDebug, message) }

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(message string) { l.log(LevelInfo, message) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(message string) { l.log(LevelWarn, message) }

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(message string) { l.log(LevelError, message) }

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string) {
	l.log(LevelFatal, message)
	os.Exit(1)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(LevelFatal, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *Logger) log(level Level, message string) {
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
	}
	if len(l.fields) > 0 {
		e.Fields = l.fields
	}

	// Caller is only worth the runtime cost on error paths
	if level >= LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	var out string
	if l.format == FormatJSON {
		b, _ := json.Marshal(e)
		out = string(b)
	} else {
		out = formatText(e)
	}
	fmt.Fprintln(l.output, out)
}

func formatText(e entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", e.Timestamp, e.Level, e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.Fields[k])
		}
	}
	if e.Caller != "" {
		fmt.Fprintf(&sb, " caller=%s", e.Caller)
	}
	return sb.String()
}

// SetOutput sets the output writer, used by tests
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

var globalLogger *Logger

// Init initializes the global logger
func Init(level Level, format Format) {
	globalLogger = New(level, format)
}

// Global returns the global logger instance
func Global() *Logger {
	if globalLogger == nil {
		globalLogger = New(LevelInfo, FormatJSON)
	}
	return globalLogger
}

type loggerKey struct{}

// WithLogger stores a logger in the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves a logger from the context, falling back to the
// global instance
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Global()
}

// Convenience wrappers over the global logger

func Debug(message string)                        { Global().Debug(message) }
func Debugf(format string, args ...interface{})   { Global().Debugf(format, args...) }
func Info(message string)                         { Global().Info(message) }
func Infof(format string, args ...interface{})    { Global().Infof(format, args...) }
func Warn(message string)                         { Global().Warn(message) }
func Warnf(format string, args ...interface{})    { Global().Warnf(format, args...) }
func Error(message string)                        { Global().Error(message) }
func Errorf(format string, args ...interface{})   { Global().Errorf(format, args...) }
func Fatalf(format string, args ...interface{})   { Global().Fatalf(format, args...) }
func WithField(key string, v interface{}) *Logger { return Global().WithField(key, v) }
func WithError(err error) *Logger                 { return Global().WithError(err) }
func WithComponent(name string) *Logger           { return Global().WithComponent(name) }

// ParseLevel parses a level name, defaulting to info
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// ParseFormat parses a format name, defaulting to json
func ParseFormat(format string) Format {
	if strings.ToLower(format) == "text" {
		return FormatText
	}
	return FormatJSON
}
