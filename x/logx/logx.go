// Package logx is a small leveled logger with bracketed tags, e.g.
//
//	[sched] WARN: counter busy
package logx

import (
	"io"
	"log"
)

type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel maps a name to a Level; unknown names give LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "none", "off":
		return LevelNone
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

type Logger struct {
	logger *log.Logger
	level  Level
	tag    string
}

func New(logger *log.Logger, level Level) *Logger {
	return &Logger{logger: logger, level: level}
}

// NewWriter logs to w without timestamps, which suits a UART console.
func NewWriter(w io.Writer, level Level) *Logger {
	return New(log.New(w, "", 0), level)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(log.New(io.Discard, "", 0), LevelNone)
}

// WithTag creates a new logger with a tag prefix.
func (l *Logger) WithTag(tag string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger, level: l.level, tag: tag}
}

func (l *Logger) Level() Level {
	if l == nil {
		return LevelNone
	}
	return l.level
}

func (l *Logger) format(level, format string) string {
	s := format
	if level != "" {
		s = level + " " + s
	}
	if l.tag != "" {
		s = "[" + l.tag + "] " + s
	}
	return s
}

func (l *Logger) logf(min Level, prefix, format string, v ...any) {
	if l == nil || l.level < min {
		return
	}
	l.logger.Printf(l.format(prefix, format), v...)
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, "DEBUG:", format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(LevelInfo, "", format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(LevelWarn, "WARN:", format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, "ERROR:", format, v...) }
