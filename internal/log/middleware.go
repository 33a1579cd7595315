package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// Middleware stores logger in the request context, enriched with the
// request id returned by requestID (may be nil).
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request at a level picked from the status.
// observe, when set, receives the route pattern, status and duration.
func AccessLog(route func(*http.Request) string, clientIP func(*http.Request) string, observe func(route string, status int, d time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			fields := NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
				WithHTTPResponse(rec.status, elapsed.Milliseconds())
			if clientIP != nil {
				fields.WithClientIP(clientIP(r))
			}
			routeName := r.URL.Path
			if route != nil {
				if rt := route(r); rt != "" {
					routeName = rt
				}
			}
			fields[FieldRoute] = routeName

			FromContext(r.Context()).Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
			if observe != nil {
				observe(routeName, rec.status, elapsed)
			}
		})
	}
}
