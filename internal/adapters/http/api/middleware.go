package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/juraj-juraj/BRIA-project/pkg/logger"
	"github.com/juraj-juraj/BRIA-project/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class per
// endpoint, and logs every request at debug level.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(elapsed.Milliseconds()))
		if rec.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http", errorClass(rec.status))
		}

		logger.Get().Debug(r.Context(), "http request",
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", rec.status),
			logger.Int("bytes", rec.bytes),
			logger.Duration("elapsed", elapsed),
		)
	}
}

// errorClass buckets an error status for the errors_by_component metric.
func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusConflict:
		return "busy"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "client_error"
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
