package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithComponent(name string) Logger
	Slog() *slog.Logger
}

type Opts struct {
	Env       string
	Level     string
	SentryDSN string
	Writer    io.Writer
}

var _ Logger = (*Impl)(nil)

type Impl struct {
	*slog.Logger
	sentry bool
}

// New builds a zerolog-backed slog logger. Errors are also shipped to
// Sentry when a DSN is configured.
func New(opts Opts) *Impl {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.Env == "local" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	level := parseLevel(opts.Level)

	handlers := []slog.Handler{
		slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler(),
	}

	sentryEnabled := false
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Env,
		})
		if err == nil {
			sentryEnabled = true
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		} else {
			zl.Error().Err(err).Msg("Failed to init sentry")
		}
	}

	return &Impl{
		Logger: slog.New(slogmulti.Fanout(handlers...)),
		sentry: sentryEnabled,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Impl) With(args ...any) Logger {
	return &Impl{Logger: l.Logger.With(args...), sentry: l.sentry}
}

func (l *Impl) WithComponent(name string) Logger {
	return l.With("component", name)
}

func (l *Impl) Slog() *slog.Logger {
	return l.Logger
}

// Flush waits for buffered Sentry events.
func (l *Impl) Flush(ctx context.Context) {
	if !l.sentry {
		return
	}
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	sentry.Flush(timeout)
}

// Nop discards everything. Used by tests.
func Nop() Logger {
	return &Impl{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
