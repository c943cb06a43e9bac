// metrics — Prometheus-коллекторы travel-api.
//
// Все методы безопасны для nil-получателя: так тесты и сборки без /metrics
// не обязаны создавать реестр.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travel_api"

// Metrics — набор коллекторов сервиса.
type Metrics struct {
	gateDecisions *prometheus.CounterVec
	renewals      prometheus.Counter
	httpDuration  *prometheus.HistogramVec
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Request gate decisions by route class and outcome.",
		}, []string{"class", "decision"}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "renewals_total",
			Help:      "Access tokens silently renewed from a refresh token.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}

	reg.MustRegister(m.gateDecisions, m.renewals, m.httpDuration)

	return m
}

// GateDecision учитывает решение Request Gate.
func (m *Metrics) GateDecision(class, decision string) {
	if m == nil {
		return
	}

	m.gateDecisions.WithLabelValues(class, decision).Inc()
}

// Renewal учитывает тихое продление access-токена.
func (m *Metrics) Renewal() {
	if m == nil {
		return
	}

	m.renewals.Inc()
}

// ObserveHTTP фиксирует длительность обработки запроса.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
