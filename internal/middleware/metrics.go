// Package middleware provides HTTP middleware for metrics collection.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
)

var recordHTTPRequest = metrics.RecordHTTPRequest

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

		recordHTTPRequest(r.Method, endpoint, status, duration)
	})
}

// normalizeEndpoint replaces path parameters with placeholders so metric
// labels stay bounded.
func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/mis/sessions/"):
		parts := strings.Split(strings.TrimPrefix(path, "/api/mis/sessions/"), "/")
		switch {
		case len(parts) == 1:
			return "/api/mis/sessions/:id"
		case len(parts) == 2 && (parts[1] == "more" || parts[1] == "filter"):
			return "/api/mis/sessions/:id/" + parts[1]
		default:
			return path
		}
	case strings.HasPrefix(path, "/api/tasks/"):
		parts := strings.Split(strings.TrimPrefix(path, "/api/tasks/"), "/")
		switch {
		case len(parts) == 1:
			return "/api/tasks/:category"
		case len(parts) == 3 && parts[2] == "complete":
			return "/api/tasks/:category/:id/complete"
		default:
			return path
		}
	case strings.HasPrefix(path, "/api/holidays/") && !strings.Contains(path[len("/api/holidays/"):], "/"):
		return "/api/holidays/:id"
	default:
		return path
	}
}
