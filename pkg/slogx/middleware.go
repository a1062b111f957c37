package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/idx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const RequestIDHeader = "X-Request-ID"

var tracer = otel.Tracer("github.com/aussiebroadwan/accounts/pkg/slogx")

// HTTPMiddleware opens a span per request, attaches a request scoped logger
// to the context and writes one summary line when the handler returns.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = idx.New().String()
			}
			rw.Header().Set(RequestIDHeader, reqID)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("http.request_id", reqID)),
			)
			defer span.End()

			logger := base.With(
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			if sc := span.SpanContext(); sc.IsValid() {
				logger = logger.With("trace_id", sc.TraceID().String())
			}

			r = r.WithContext(WithContext(ctx, logger))
			next.ServeHTTP(rw, r)

			span.SetAttributes(attribute.Int("http.status_code", rw.status))
			logger.Info("http_request",
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter

	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
