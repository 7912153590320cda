package middleware

import (
	"net/http"
	"time"

	"github.com/advisorlens/advisorlens/internal/pkg/logger"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logger logs each request with method, path, status and duration.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rw.status,
				"duration":   time.Since(start).String(),
				"request_id": GetRequestID(r),
				"remote":     r.RemoteAddr,
			}).Info("request completed")
		})
	}
}
