package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Recorder is the subset of theatermetrics.Manager this middleware
// needs, kept narrow to avoid a hard dependency cycle on the metrics
// package's full surface.
type Recorder interface {
	InterruptHandled(priority string, seconds float64)
}

// Metrics records request duration against Recorder, labeling each
// request with an "http:<status code>" priority bucket. Requests under
// /metrics are not recorded.
func Metrics(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/metrics") {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			rec.InterruptHandled("http:"+strconv.Itoa(wrapped.statusCode), time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
