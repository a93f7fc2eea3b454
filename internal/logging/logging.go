// Package logging provides the structured logger threaded through every
// pipeline component, the way the teacher threads a logging.Logger field
// through each of its data plugins.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the narrow interface every component depends on. Components
// never reach for a package-level global; a Logger is constructed once at
// startup and passed down.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a lazily-applied structured field.
type Field func(e *zerolog.Event) *zerolog.Event

func String(key, value string) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Str(key, value) }
}

func Int(key string, value int) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Int(key, value) }
}

func Int64(key string, value int64) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Int64(key, value) }
}

func Bool(key string, value bool) Field {
	return func(e *zerolog.Event) *zerolog.Event { return e.Bool(key, value) }
}

type zlogger struct {
	z      zerolog.Logger
	static []Field
}

// New builds a Logger writing leveled JSON to w, defaulting to the level
// named by LOGGING_LEVEL (§6); an unrecognized or empty level is "info".
func New(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	l := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return &zlogger{z: l}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *zlogger) Debug(msg string, fields ...Field) { l.event(l.z.Debug(), fields).Msg(msg) }
func (l *zlogger) Info(msg string, fields ...Field)  { l.event(l.z.Info(), fields).Msg(msg) }
func (l *zlogger) Warn(msg string, fields ...Field)  { l.event(l.z.Warn(), fields).Msg(msg) }

func (l *zlogger) Error(msg string, err error, fields ...Field) {
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	l.event(e, fields).Msg(msg)
}

// With returns a derived Logger that applies fields to every subsequent
// call in addition to whatever is passed at the call site.
func (l *zlogger) With(fields ...Field) Logger {
	static := make([]Field, 0, len(l.static)+len(fields))
	static = append(static, l.static...)
	static = append(static, fields...)
	return &zlogger{z: l.z, static: static}
}

func (l *zlogger) event(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range l.static {
		e = f(e)
	}
	for _, f := range fields {
		e = f(e)
	}
	return e
}
