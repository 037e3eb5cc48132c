package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/emojify/idgen"
	"github.com/hazyhaar/emojify/kit"
)

// TraceID returns middleware that stamps each request with an ID from gen.
// The ID goes into the context (kit.TraceIDKey), the X-Trace-ID response
// header, and a per-request logger stored under LoggerKey.
func TraceID(gen idgen.Generator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := gen()

			ctx := kit.WithTraceID(r.Context(), traceID)
			w.Header().Set("X-Trace-ID", traceID)

			logger := slog.Default().With(
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx = WithLogger(ctx, logger)
			logger.Info("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLogger stores a per-request logger in ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
