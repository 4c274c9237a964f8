package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

var sensitiveHeaders = map[string]struct{}{
	"authorization":  {},
	"cookie":         {},
	"set-cookie":     {},
	"x-api-key":      {},
	"x-device-token": {},
}

// RequestLogger logs every request with its status and duration. Credentials in headers are masked.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			l.Debug("request started", slog.Any("headers", MaskHeaders(r.Header)))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int("bytes", ww.BytesWritten()),
			}

			switch {
			case status >= 500:
				l.Error("request completed", attrs...)
			case status >= 400:
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// MaskHeaders flattens headers to lower-case keys and hides credential values.
func MaskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		key := strings.ToLower(k)
		if _, ok := sensitiveHeaders[key]; ok {
			out[key] = "****"
			continue
		}
		out[key] = strings.Join(v, ", ")
	}
	return out
}
