package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vichar-ai/vichar-backend/pkg/metrics"
)

// HTTPMetrics records a latency observation per route pattern. It must run
// inside the chi router so the pattern is resolved.
func HTTPMetrics(m *metrics.LedgerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			route := r.URL.Path
			if ctx := chi.RouteContext(r.Context()); ctx != nil {
				if pattern := ctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.ObserveHTTPRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
		})
	}
}
