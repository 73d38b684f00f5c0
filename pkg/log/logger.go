// Package log provides the structured logging system for chronicle services.
package log

import (
	"fmt"
	"os"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO":
		return InfoLevel, nil
	case "warn", "WARN", "warning":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	case "fatal", "FATAL":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// Entry represents a single log entry.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
}

// Logger defines the core logging interface for chronicle components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// With returns a child logger carrying the additional fields.
	With(fields ...Field) Logger
	// WithComponent tags logs with a component name.
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Formatter defines the interface for formatting log entries.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formatted []byte) error
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*BaseLogger)

// BaseLogger implements the Logger interface.
type BaseLogger struct {
	level     Level
	fields    Fields
	formatter Formatter
	outputs   []Output
	exit      func(int)
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	logger := &BaseLogger{
		level:     InfoLevel,
		fields:    Fields{},
		formatter: &JSONFormatter{},
		exit:      os.Exit,
	}
	for _, option := range options {
		option(logger)
	}
	if len(logger.outputs) == 0 {
		logger.outputs = append(logger.outputs, NewConsoleOutput())
	}
	return logger
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return NewLogger(WithOutput(discardOutput{}))
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) { l.level = level }
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(l *BaseLogger) { l.formatter = formatter }
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(l *BaseLogger) { l.outputs = append(l.outputs, output) }
}

// Config is the file/env-facing logging configuration.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// ApplyConfig builds a logger from a Config. Unknown values are errors.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}
	return NewLogger(WithLevel(level), WithFormatter(formatter)), nil
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    merged,
		Timestamp: time.Now(),
	}
	formatted, err := l.formatter.Format(entry)
	if err != nil {
		return
	}
	for _, out := range l.outputs {
		_ = out.Write(entry, formatted)
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
	l.exit(1)
}

// With returns a child logger carrying the additional fields.
func (l *BaseLogger) With(fields ...Field) Logger {
	child := *l
	child.fields = make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for _, f := range fields {
		child.fields[f.Key] = f.Value
	}
	return &child
}

// WithComponent tags logs with a component name.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// SetLevel sets the minimum log level.
func (l *BaseLogger) SetLevel(level Level) { l.level = level }

// GetLevel returns the current minimum log level.
func (l *BaseLogger) GetLevel() Level { return l.level }
