// Package logger provides the structured logger used across the engine.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger with field-chaining helpers so call sites can
// build context incrementally before emitting.
type Logger struct {
	zl zerolog.Logger
}

// NewDefault returns a logger tagged with the given service name, writing
// console-formatted output to stderr.
func NewDefault(service string) *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", service).Logger()
	return &Logger{zl: zl}
}

// New returns a JSON logger writing to the given destination.
func New(service string, out io.Writer) *Logger {
	zl := zerolog.New(out).With().Timestamp().Str("service", service).Logger()
	return &Logger{zl: zl}
}

// SetOutput redirects log output. Useful for silencing examples and tests.
func (l *Logger) SetOutput(out io.Writer) {
	l.zl = l.zl.Output(out)
}

// SetLevel adjusts the minimum emitted level.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.zl = l.zl.Level(level)
}

// WithField returns a logger carrying an additional key/value pair.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithError returns a logger carrying the error under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().AnErr("error", err).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }
