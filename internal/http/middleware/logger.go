package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
	uuid "github.com/satori/go.uuid"
)

const RequestIDHeader = "X-Request-ID"

func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewV4().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			m := httpsnoop.CaptureMetrics(next, w, r)

			log.Info("request completed",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Int64("bytes", m.Written),
				slog.Duration("duration", m.Duration),
			)
		})
	}
}
