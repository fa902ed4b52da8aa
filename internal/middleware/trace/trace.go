// Package trace assigns a request ID to every incoming request and logs
// start/completion with timing and status.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync/atomic"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/middleware/security"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// GenerateRequestID returns a short random identifier suitable for log
// correlation.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "req_fallback"
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID returns the request ID stored in ctx, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Metrics tracks request counters for the readiness endpoint.
type Metrics struct {
	Total     atomic.Int64
	Succeeded atomic.Int64
	Failed    atomic.Int64
}

func (m *Metrics) record(status int) {
	m.Total.Add(1)
	if status >= 500 {
		m.Failed.Add(1)
	} else {
		m.Succeeded.Add(1)
	}
}

// responseWriter captures the status code written downstream.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware wires request ID propagation and structured request logging.
// metrics may be nil.
func Middleware(logger *log.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = GenerateRequestID()
			}
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			logger.Debug("request started",
				log.FieldRequestID, requestID,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, security.ClientIP(r),
			)

			next.ServeHTTP(rw, r.WithContext(ctx))

			duration := time.Since(start)
			if metrics != nil {
				metrics.record(rw.status)
			}

			attrs := []any{
				log.FieldRequestID, requestID,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldStatusCode, rw.status,
				log.FieldDuration, duration.Milliseconds(),
			}
			switch {
			case rw.status >= 500:
				logger.Error("request completed", attrs...)
			case rw.status >= 400:
				logger.Warn("request completed", attrs...)
			default:
				logger.Info("request completed", attrs...)
			}
		})
	}
}
