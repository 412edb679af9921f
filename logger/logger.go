// Package logger wraps zerolog with a console writer and component-tagged
// child loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger carrying fixed fields
type Logger struct {
	logger zerolog.Logger
}

// Default is the process-wide logger. It is created on first use when Init
// has not been called.
var Default *Logger

// Init writes console logs to stderr
func Init() {
	InitWithWriter(os.Stderr)
}

// InitWithWriter writes console logs to w at the level chosen by LOG_LEVEL,
// or by DEALPICKER_ENVIRONMENT when LOG_LEVEL is unset
func InitWithWriter(w io.Writer) {
	level := levelFromEnv()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	Default = &Logger{logger: zerolog.New(output).With().Timestamp().Logger()}

	Default.Debug().Str("level", level.String()).Msg("Logger initialized")
}

func levelFromEnv() zerolog.Level {
	name := os.Getenv("LOG_LEVEL")
	if name == "" {
		if os.Getenv("DEALPICKER_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithField returns a child logger with one more field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError returns a child logger that attaches err to every event
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

func ensure() {
	if Default == nil {
		Init()
	}
}

// Debug logs a printf-style debug message
func Debug(format string, v ...interface{}) {
	ensure()
	Default.Debug().Msgf(format, v...)
}

// Info logs a printf-style info message
func Info(format string, v ...interface{}) {
	ensure()
	Default.Info().Msgf(format, v...)
}

// Warn logs a printf-style warning
func Warn(format string, v ...interface{}) {
	ensure()
	Default.Warn().Msgf(format, v...)
}

// IsDebugEnabled reports whether debug events are written
func IsDebugEnabled() bool {
	ensure()
	return Default.logger.GetLevel() <= zerolog.DebugLevel && zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// ForPlatform returns a logger tagged with a platform identifier
func ForPlatform(platform string) *Logger {
	ensure()
	return Default.WithField("platform", platform)
}

// ForComponent returns a logger tagged with a component name
func ForComponent(component string) *Logger {
	ensure()
	return Default.WithField("component", component)
}

// LogError logs err at error level under component
func LogError(component string, err error, format string, v ...interface{}) {
	ForComponent(component).Error().Err(err).Msg(fmt.Sprintf(format, v...))
}

// LogInfo logs a printf-style info message under component
func LogInfo(component string, format string, v ...interface{}) {
	ForComponent(component).Info().Msg(fmt.Sprintf(format, v...))
}
