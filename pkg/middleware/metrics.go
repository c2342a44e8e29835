package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/reelsync/pkg/metrics"
)

// Instrument wraps a handler with request count and latency metrics labeled
// by route pattern.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
