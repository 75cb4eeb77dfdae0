package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

// ServiceName is stamped on every log line
const ServiceName = "screener"

// Logger wraps zerolog with the field helpers the screener uses
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zl zerolog.Logger
}

// New logs to stdout
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter logs JSON lines to w, or console text when LOG_FORMAT is
// console/pretty. Color is only used on stdout.
func NewWithWriter(cfg *config.Config, w io.Writer) *Logger {
	out := w
	switch cfg.LogFormat {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stdout}
	}

	zl := zerolog.New(out).Level(levelOf(cfg.LogLevel)).
		With().Timestamp().
		Str("service", ServiceName).
		Str("env", cfg.Env).
		Logger()
	return &Logger{zl: zl}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// levelOf accepts zerolog level names plus "warning"; anything else is info
func levelOf(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Level reports the minimum level written
func (l *Logger) Level() zerolog.Level {
	return l.zl.GetLevel()
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Infof(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// with derives a child logger; the receiver is never modified
func (l *Logger) with(add func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: add(l.zl.With()).Logger()}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

// WithComponent tags lines with the emitting component (api, retention, ...)
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Str("component", name) })
}
