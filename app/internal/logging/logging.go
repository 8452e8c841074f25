// Package logging configures the global zerolog logger and HTTP request logging.
package logging

import (
	"io"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. format is "json" or "console".
func Setup(level, format string) (zerolog.Logger, error) {
	return setup(os.Stdout, level, format)
}

func setup(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l, nil
}

// Middleware injects l into each request context, tags it with a request id
// and writes one access line per request. Only the URL path is logged; query
// strings can carry upstream paths and are left out.
func Middleware(l zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(l)
	withRequestID := hlog.RequestIDHandler("request_id", "X-Request-Id")
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})
	return func(next http.Handler) http.Handler {
		return withLogger(withRequestID(access(next)))
	}
}

// StdLogger adapts l for APIs that want a *log.Logger, such as http.Server.
func StdLogger(l zerolog.Logger) *stdlog.Logger {
	return stdlog.New(l.With().Str("component", "http").Logger(), "", 0)
}
