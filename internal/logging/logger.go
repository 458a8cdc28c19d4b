// Package logging wraps zerolog with subsystem-scoped child loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger that hands out tagged children.
type Logger struct {
	zl zerolog.Logger
}

// New creates a root logger writing JSON lines to w at level.
// If w is nil, output is pretty console text on stderr.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = console("pretty")
	}
	return newLogger(w, level, true)
}

// NewStyled creates a root logger on stderr in a console style:
// "json" emits raw JSON lines, "compact" drops timestamps, anything else is pretty.
func NewStyled(style, level string) *Logger {
	if style == "json" {
		return newLogger(os.Stderr, level, true)
	}
	return newLogger(console(style), level, style != "compact")
}

func console(style string) io.Writer {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	if style == "compact" {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return cw
}

func newLogger(w io.Writer, level string, stamp bool) *Logger {
	ctx := zerolog.New(w).Level(parseLevel(level)).With()
	if stamp {
		ctx = ctx.Timestamp()
	}
	return &Logger{zl: ctx.Logger()}
}

// Sub returns a child logger tagged with a subsystem name.
func (l *Logger) Sub(subsystem string) *Logger {
	return l.With("subsystem", subsystem)
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// parseLevel maps a config level name to zerolog. "silent" disables output;
// unknown names fall back to info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "silent" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
