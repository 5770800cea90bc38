// Package stdlogger adapts the global zerolog logger to printf style and
// key/value leveled logger interfaces expected by third party libraries.
package stdlogger

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes to the global zerolog logger captured at creation.
type Logger struct {
	l zerolog.Logger
}

// New returns a Logger over the current global logger.
func New() *Logger {
	return &Logger{l: log.Logger}
}

// With returns a Logger with an extra string field on every entry.
func (s *Logger) With(key, value string) *Logger {
	return &Logger{l: s.l.With().Str(key, value).Logger()}
}

// Debugf logs at debug level.
func (s *Logger) Debugf(format string, args ...any) {
	s.l.Debug().Msgf(format, args...)
}

// Infof logs at info level.
func (s *Logger) Infof(format string, args ...any) {
	s.l.Info().Msgf(format, args...)
}

// Warningf logs at warn level.
func (s *Logger) Warningf(format string, args ...any) {
	s.l.Warn().Msgf(format, args...)
}

// Errorf logs at error level.
func (s *Logger) Errorf(format string, args ...any) {
	s.l.Error().Msgf(format, args...)
}

// Printf logs at info level.
func (s *Logger) Printf(format string, args ...any) {
	s.Infof(format, args...)
}

// Debug logs msg with key/value pairs at debug level.
func (s *Logger) Debug(msg string, keysAndValues ...any) {
	fields(s.l.Debug(), keysAndValues).Msg(msg)
}

// Info logs msg with key/value pairs at info level.
func (s *Logger) Info(msg string, keysAndValues ...any) {
	fields(s.l.Info(), keysAndValues).Msg(msg)
}

// Warn logs msg with key/value pairs at warn level.
func (s *Logger) Warn(msg string, keysAndValues ...any) {
	fields(s.l.Warn(), keysAndValues).Msg(msg)
}

// Error logs msg with key/value pairs at error level.
func (s *Logger) Error(msg string, keysAndValues ...any) {
	fields(s.l.Error(), keysAndValues).Msg(msg)
}

func fields(e *zerolog.Event, keysAndValues []any) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		switch v := keysAndValues[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}

	if len(keysAndValues)%2 == 1 {
		e = e.Interface("extra", keysAndValues[len(keysAndValues)-1])
	}

	return e
}
