// Package logging provides structured logging backed by logrus.
//
// Calls chain fields onto a level entry and finish with Msg:
//
//	log.Debug().Str("provider", id).Int("items", n).Msg("provider returned items")
//
// A nil *Logger is valid and discards everything.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry carrying the logger's base fields.
type Logger struct {
	base *logrus.Entry
}

// Entry accumulates fields for a single log line.
type Entry struct {
	entry *logrus.Entry
	level logrus.Level
}

// New creates a logger writing to output at the given level.
// Format "json" selects the JSON formatter; anything else selects text.
func New(level, format string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(output)
	log.SetLevel(parseLevel(level))

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			PadLevelText:     true,
		})
	}

	return &Logger{base: logrus.NewEntry(log)}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return &Logger{base: logrus.NewEntry(log)}
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.WithField(key, value)}
}

// SetLevel changes the minimum level of the underlying logger.
func (l *Logger) SetLevel(level string) {
	if l == nil {
		return
	}
	l.base.Logger.SetLevel(parseLevel(level))
}

// Debug starts a debug entry.
func (l *Logger) Debug() *Entry { return l.at(logrus.DebugLevel) }

// Info starts an info entry.
func (l *Logger) Info() *Entry { return l.at(logrus.InfoLevel) }

// Warn starts a warning entry.
func (l *Logger) Warn() *Entry { return l.at(logrus.WarnLevel) }

// Error starts an error entry.
func (l *Logger) Error() *Entry { return l.at(logrus.ErrorLevel) }

// at returns nil when the level is disabled so field building is skipped.
func (l *Logger) at(level logrus.Level) *Entry {
	if l == nil || !l.base.Logger.IsLevelEnabled(level) {
		return nil
	}
	return &Entry{entry: l.base, level: level}
}

// Str adds a string field.
func (e *Entry) Str(key, value string) *Entry {
	if e != nil {
		e.entry = e.entry.WithField(key, value)
	}
	return e
}

// Int adds an int field.
func (e *Entry) Int(key string, value int) *Entry {
	if e != nil {
		e.entry = e.entry.WithField(key, value)
	}
	return e
}

// Bool adds a bool field.
func (e *Entry) Bool(key string, value bool) *Entry {
	if e != nil {
		e.entry = e.entry.WithField(key, value)
	}
	return e
}

// Any adds a field of any type.
func (e *Entry) Any(key string, value any) *Entry {
	if e != nil {
		e.entry = e.entry.WithField(key, value)
	}
	return e
}

// Err adds an error field.
func (e *Entry) Err(err error) *Entry {
	if e != nil && err != nil {
		e.entry = e.entry.WithError(err)
	}
	return e
}

// Dur adds a duration field in milliseconds.
func (e *Entry) Dur(key string, d time.Duration) *Entry {
	if e != nil {
		e.entry = e.entry.WithField(key, float64(d.Microseconds())/1000.0)
	}
	return e
}

// Msg writes the entry.
func (e *Entry) Msg(msg string) {
	if e == nil {
		return
	}
	e.entry.Log(e.level, msg)
}

// Msgf writes the entry with a formatted message.
func (e *Entry) Msgf(format string, args ...any) {
	if e == nil {
		return
	}
	e.entry.Logf(e.level, format, args...)
}
