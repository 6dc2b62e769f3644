// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/windowsadmins/setupinfo/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

func (ll LogLevel) zerolog() zerolog.Level {
	switch ll {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel maps a configuration value to a LogLevel. Unknown values are INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger encapsulates the logging functionality.
type Logger struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	logLevel LogLevel
	logFile  *os.File
}

var (
	instance = newDefaultLogger()
	once     sync.Once
)

// newDefaultLogger is used until Init runs: warnings and errors only, to stderr.
func newDefaultLogger() *Logger {
	return &Logger{
		logger:   zerolog.New(consoleWriter(os.Stderr)).Level(zerolog.WarnLevel).With().Timestamp().Logger(),
		logLevel: LevelWarn,
	}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
}

// Init initializes the singleton Logger based on the provided configuration.
// Later calls are no-ops; use ReInit to apply a new configuration.
func Init(cfg *config.Configuration) error {
	var initErr error
	once.Do(func() {
		var l *Logger
		l, initErr = newLogger(cfg, os.Stderr)
		if initErr == nil {
			swap(l)
		}
	})
	return initErr
}

// newLogger creates a new Logger writing to out and, when configured, to a
// JSON log file.
func newLogger(cfg *config.Configuration, out io.Writer) (*Logger, error) {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = LevelDebug
	} else if cfg.Verbose && level < LevelInfo {
		level = LevelInfo
	}

	var w io.Writer = consoleWriter(out)
	var file *os.File
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		w = zerolog.MultiLevelWriter(w, f)
	}

	logger := zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
	logger.Debug().
		Str("log_level", cfg.LogLevel).
		Bool("verbose", cfg.Verbose).
		Bool("debug", cfg.Debug).
		Msg("Logger initialized")

	return &Logger{logger: logger, logLevel: level, logFile: file}, nil
}

// swap installs l as the singleton, closing the previous log file.
func swap(l *Logger) {
	instance.mu.Lock()
	defer instance.mu.Unlock()
	if instance.logFile != nil {
		_ = instance.logFile.Close()
	}
	instance.logger = l.logger
	instance.logLevel = l.logLevel
	instance.logFile = l.logFile
}

// CloseLogger closes the log file if it's open.
func CloseLogger() {
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.logFile != nil {
		if err := instance.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
		}
		instance.logFile = nil
	}
}

// CurrentLevel reports the active level.
func CurrentLevel() LogLevel {
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logLevel
}

// logMessage logs a message at the specified level with optional key-value pairs.
func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level > l.logLevel {
		return
	}

	if len(keyValues)%2 != 0 {
		keyValues = append(keyValues, "MISSING_VALUE")
	}

	ev := l.logger.WithLevel(level.zerolog())
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			key = fmt.Sprintf("NON_STRING_KEY_%d", i)
		}
		switch v := keyValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(message)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	instance.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	instance.logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	instance.logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	instance.logMessage(LevelError, message, keyValues...)
}

// ReInit re-initializes the logger after a configuration change.
func ReInit(cfg *config.Configuration) error {
	l, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	swap(l)
	return nil
}
