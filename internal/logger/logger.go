// Package logger is a thin wrapper around log/slog. On a terminal it
// writes colorized output via tint, otherwise plain logfmt to stderr.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var Level = &levelVar{}

type levelVar struct {
	lvl slog.LevelVar
}

// Set parses and applies a level name ("debug", "info", "warn", "error").
func (v *levelVar) Set(name string) {
	switch strings.ToLower(name) {
	case "debug":
		v.lvl.Set(slog.LevelDebug)
	case "warn", "warning":
		v.lvl.Set(slog.LevelWarn)
	case "error":
		v.lvl.Set(slog.LevelError)
	default:
		v.lvl.Set(slog.LevelInfo)
	}
}

func (v *levelVar) Enabled(lvl slog.Level) bool { return v.lvl.Level() <= lvl }

// Logger logs through an underlying slog.Logger.
type Logger struct {
	sl *slog.Logger
}

func New() *Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return &Logger{sl: slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: &Level.lvl,
		}))}
	}
	return &Logger{sl: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &Level.lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				v := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(strings.ToLower(v.String()))
			}
			return a
		},
	}))}
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return New().With(args...)
	}
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) Error(a ...any)   { l.log(slog.LevelError, fmt.Sprint(a...)) }
func (l *Logger) Warning(a ...any) { l.log(slog.LevelWarn, fmt.Sprint(a...)) }
func (l *Logger) Info(a ...any)    { l.log(slog.LevelInfo, fmt.Sprint(a...)) }
func (l *Logger) Debug(a ...any)   { l.log(slog.LevelDebug, fmt.Sprint(a...)) }

func (l *Logger) Errorf(format string, a ...any)   { l.log(slog.LevelError, fmt.Sprintf(format, a...)) }
func (l *Logger) Warningf(format string, a ...any) { l.log(slog.LevelWarn, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)    { l.log(slog.LevelInfo, fmt.Sprintf(format, a...)) }
func (l *Logger) Debugf(format string, a ...any)   { l.log(slog.LevelDebug, fmt.Sprintf(format, a...)) }

func (l *Logger) log(lvl slog.Level, msg string) {
	if l == nil || l.sl == nil {
		defaultLogger.log(lvl, msg)
		return
	}
	l.sl.Log(context.Background(), lvl, msg)
}

// SetLevel applies a level name to the global level.
func SetLevel(name string) { Level.Set(name) }

var defaultLogger = New()

func Error(a ...any)                   { defaultLogger.Error(a...) }
func Warning(a ...any)                 { defaultLogger.Warning(a...) }
func Info(a ...any)                    { defaultLogger.Info(a...) }
func Debug(a ...any)                   { defaultLogger.Debug(a...) }
func Errorf(format string, a ...any)   { defaultLogger.Errorf(format, a...) }
func Warningf(format string, a ...any) { defaultLogger.Warningf(format, a...) }
func Infof(format string, a ...any)    { defaultLogger.Infof(format, a...) }
func Debugf(format string, a ...any)   { defaultLogger.Debugf(format, a...) }
func With(args ...any) *Logger         { return defaultLogger.With(args...) }
