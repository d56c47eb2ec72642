package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LogLevelSilent disables all logging
	LogLevelSilent LogLevel = iota
	// LogLevelError shows only errors
	LogLevelError
	// LogLevelWarn shows warnings and errors
	LogLevelWarn
	// LogLevelInfo shows info, warnings, and errors (verbose mode)
	LogLevelInfo
	// LogLevelDebug shows all logs including debug information
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelSilent: "SILENT",
	LogLevelError:  "ERROR",
	LogLevelWarn:   "WARN",
	LogLevelInfo:   "INFO",
	LogLevelDebug:  "DEBUG",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	for level, levelName := range levelNames {
		if strings.EqualFold(name, levelName) {
			return level, nil
		}
	}
	return LogLevelError, fmt.Errorf("unknown log level %q", name)
}

// Logger provides structured logging with levels
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	output io.Writer
}

var defaultLogger = &Logger{
	level:  LogLevelError,
	output: os.Stderr,
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level
}

// SetOutput redirects log output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	prev := defaultLogger.output
	defaultLogger.output = w
	return prev
}

// log writes a log message if the level is enabled
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	levelName := levelNames[level]
	message := fmt.Sprintf(format, args...)

	// Redact embedded payloads
	message = redactSensitive(message)

	fmt.Fprintf(l.output, "[%s] %s: %s\n", timestamp, levelName, message)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	defaultLogger.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	defaultLogger.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	defaultLogger.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	defaultLogger.log(LogLevelError, format, args...)
}

// redactSensitive hides message payloads. A value follows "message=" and runs
// to the next space, or through the closing quote when it is Go-quoted.
func redactSensitive(message string) string {
	const key = "message="
	if !strings.Contains(message, key) {
		return message
	}

	var sb strings.Builder
	rest := message
	for {
		idx := strings.Index(rest, key)
		if idx < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:idx+len(key)])
		sb.WriteString("***")
		rest = rest[idx+len(key):]
		rest = rest[valueEnd(rest):]
	}
	return sb.String()
}

// valueEnd returns the length of the value at the start of s. Quoted values
// end at their unescaped closing quote; an unterminated quote runs to the end.
func valueEnd(s string) int {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "`") {
		if quoted, err := strconv.QuotedPrefix(s); err == nil {
			return len(quoted)
		}
		return len(s)
	}
	if end := strings.IndexAny(s, " \n"); end >= 0 {
		return end
	}
	return len(s)
}
