// Package accesslog is a per-request structured logging middleware,
// adapted from the teacher's pkg/accesslog (which buffered S3-style
// log lines and flushed them to a target bucket). Our ambient logging
// story is plain structured logs, so the buffering/target-bucket
// machinery has no home here — what survives is the response-capturing
// wrapper and the one-line-per-request shape.
package accesslog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/blobsvc/blobsvc/internal/reqid"
)

// ResponseWriter wraps http.ResponseWriter to capture the status code
// and byte count written, the way the teacher's ResponseWriter does.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode   int
	BytesWritten int64
}

// NewResponseWriter wraps w, defaulting StatusCode to 200 the way
// net/http does when WriteHeader is never called explicitly.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (w *ResponseWriter) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.BytesWritten += int64(n)
	return n, err
}

// Middleware logs one structured line per request: method, path,
// status, bytes written, duration and request id. It is meant to sit
// inside reqid.Middleware so FromContext already has an id to log.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := NewResponseWriter(w)
			next.ServeHTTP(rw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.StatusCode,
				"bytes", rw.BytesWritten,
				"duration", time.Since(start),
				"requestId", reqid.FromContext(r.Context()),
			)
		})
	}
}
