package http

import (
	"time"

	"github.com/dmitrijs2005/lip/internal/server/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine operations by outcome and times them.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lip",
			Name:      "operations_total",
			Help:      "Address and token operations by outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lip",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in address and token operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.ops, m.duration)
	return m
}

func (m *Metrics) observe(op string, st session.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, st.String()).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
