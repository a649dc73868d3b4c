// Package middleware provides HTTP middleware for metrics collection.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oyucel/timeledger/internal/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := normalizeEndpoint(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(r.Method, endpoint, status, duration)
	})
}

func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/task-timer/stop/"):
		return "/api/task-timer/stop/:id"
	case strings.HasPrefix(path, "/api/task-timer/status/"):
		return "/api/task-timer/status/:taskId"
	case strings.HasPrefix(path, "/api/task-timer/update-timer"):
		return "/api/task-timer/update-timer/:id"
	case path == "/api/task-timer/total-hours" || path == "/api/task-timer/start":
		return path
	case strings.HasPrefix(path, "/api/task-timer/"):
		return "/api/task-timer/:id"
	case strings.HasPrefix(path, "/api/hours-management/user/"):
		return "/api/hours-management/user/:userId"
	case strings.HasPrefix(path, "/api/tasks/"):
		return "/api/tasks/:id/status"
	default:
		return path
	}
}
