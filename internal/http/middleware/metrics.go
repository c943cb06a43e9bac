package middleware

import (
	"net/http"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/metrics"
)

// Metrics фиксирует длительность запросов в гистограмме. m может быть nil.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			m.ObserveHTTP(r.Method, sw.Status(), time.Since(start))
		})
	}
}
