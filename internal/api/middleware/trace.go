package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/jobd/internal/api/shared"
	"github.com/phrazzld/jobd/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and echoes it in
// the X-Trace-ID response header. The request context also carries a logger
// tagged with the trace ID. Apply it early so that every later handler sees
// both.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set(shared.TraceIDHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
