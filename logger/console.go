// Package logger provides the leveled console logger used by sheetshow.
//
// Messages are written as "[HH:MM:SS] LEVEL message". Levels below the
// configured threshold are dropped. Level labels are coloured when the
// writer is a terminal and NO_COLOR is not set.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs to a writer with timestamps. Safe for concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger that writes to w.
// If w is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else means "warn".
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		logLevel:    NormalizeLevel(logLevel),
		colorOutput: isTerminal(w),
		now:         time.Now,
	}
}

// isTerminal checks if the writer is a TTY that should get colours
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NormalizeLevel lower-cases and validates a level name, defaulting to "warn"
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	default:
		return "warn"
	}
}

// Level returns the configured threshold
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelWarn
	}
}

// Tracef logs at trace level
func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.logWithLevel("trace", fmt.Sprintf(format, args...))
}

// Debugf logs at debug level
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.logWithLevel("debug", fmt.Sprintf(format, args...))
}

// Infof logs at info level
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.logWithLevel("info", fmt.Sprintf(format, args...))
}

// Warnf logs at warn level
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.logWithLevel("warn", fmt.Sprintf(format, args...))
}

// Errorf logs at error level
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.logWithLevel("error", fmt.Sprintf(format, args...))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl == nil || cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := cl.now().Format("15:04:05")
	fmt.Fprintln(cl.writer, cl.format(ts, strings.ToUpper(level), message))
}

func (cl *ConsoleLogger) format(ts, level, message string) string {
	if !cl.colorOutput {
		return fmt.Sprintf("[%s] %s %s", ts, level, message)
	}

	var coloredLevel string
	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("%s %s %s", color.New(color.FgHiBlack).Sprintf("[%s]", ts), coloredLevel, message)
}
