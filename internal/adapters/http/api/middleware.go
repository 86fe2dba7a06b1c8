package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/linemate/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per endpoint. Failed
// requests are also counted under the error code the handler answered with
// (bad_request, already_finalized, backpressure...), so a burst of 429s from
// a full finalize queue is told apart from rejected rosters.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.errorCode()
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByType(code, severity(code))
		metrics.RecordErrorLatency("http", code, durationMs)
	}
}

// severity ranks error codes for alerting: server faults are high, capacity
// problems medium, caller mistakes low.
func severity(code string) string {
	switch code {
	case "internal_error":
		return "high"
	case "backpressure", "unavailable":
		return "medium"
	default:
		return "low"
	}
}

// statusRecorder remembers the status and, when written through
// writeError, the error code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// errorCode falls back to a code derived from the status when the handler
// wrote the error itself.
func (rec *statusRecorder) errorCode() string {
	if rec.code != "" {
		return rec.code
	}
	switch {
	case rec.status >= http.StatusInternalServerError:
		return "internal_error"
	case rec.status == http.StatusNotFound:
		return "not_found"
	case rec.status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "client_error"
	}
}
