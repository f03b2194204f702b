// Package logger provides a simple leveled logging interface and implementation
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the logging interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

// Options controls where log lines go. Zero values fall back to stdout/stderr.
type Options struct {
	Level      string
	File       string // rotated through lumberjack when set
	MaxSizeMB  int
	MaxBackups int
}

// logger implements the Logger interface
type logger struct {
	level   Level
	loggers map[Level]*log.Logger
	mu      sync.RWMutex
}

// New creates a new logger instance configured from LOG_LEVEL and LOG_FILE.
func New() Logger {
	return NewWithOptions(Options{
		Level:      os.Getenv("LOG_LEVEL"),
		File:       os.Getenv("LOG_FILE"),
		MaxSizeMB:  atoiOr(os.Getenv("LOG_MAX_SIZE_MB"), 50),
		MaxBackups: atoiOr(os.Getenv("LOG_MAX_BACKUPS"), 3),
	})
}

// NewWithOptions creates a logger from explicit options.
func NewWithOptions(opts Options) Logger {
	var out, errOut io.Writer = os.Stdout, os.Stderr
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		errOut = io.MultiWriter(os.Stderr, rotator)
	}

	return &logger{
		level: ParseLevel(opts.Level),
		loggers: map[Level]*log.Logger{
			LevelDebug: log.New(out, "[DEBUG] ", log.LstdFlags|log.Lshortfile),
			LevelInfo:  log.New(out, "[INFO] ", log.LstdFlags),
			LevelWarn:  log.New(out, "[WARN] ", log.LstdFlags),
			LevelError: log.New(errOut, "[ERROR] ", log.LstdFlags|log.Lshortfile),
		},
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() Logger {
	return &logger{level: levelOff, loggers: map[Level]*log.Logger{}}
}

// ParseLevel converts string log level to Level type
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func atoiOr(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

// shouldLog checks if a message should be logged at given level
func (l *logger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// output logs a message at the specified level
func (l *logger) output(level Level, msg string) {
	if !l.shouldLog(level) {
		return
	}

	l.mu.RLock()
	lg := l.loggers[level]
	l.mu.RUnlock()

	if lg != nil {
		lg.Output(4, msg)
	}
}

// Debug logs a debug message
func (l *logger) Debug(v ...interface{}) {
	l.output(LevelDebug, fmt.Sprint(v...))
}

// Debugf logs a formatted debug message
func (l *logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, fmt.Sprintf(format, v...))
}

// Info logs an info message
func (l *logger) Info(v ...interface{}) {
	l.output(LevelInfo, fmt.Sprint(v...))
}

// Infof logs a formatted info message
func (l *logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func (l *logger) Warn(v ...interface{}) {
	l.output(LevelWarn, fmt.Sprint(v...))
}

// Warnf logs a formatted warning message
func (l *logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, fmt.Sprintf(format, v...))
}

// Error logs an error message
func (l *logger) Error(v ...interface{}) {
	l.output(LevelError, fmt.Sprint(v...))
}

// Errorf logs a formatted error message
func (l *logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, fmt.Sprintf(format, v...))
}

// Fatal logs an error message and exits
func (l *logger) Fatal(v ...interface{}) {
	l.output(LevelError, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted error message and exits
func (l *logger) Fatalf(format string, v ...interface{}) {
	l.output(LevelError, fmt.Sprintf(format, v...))
	os.Exit(1)
}
