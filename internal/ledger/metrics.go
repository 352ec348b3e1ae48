package ledger

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	committed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sredstva",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Transactions recorded, by operation and type.",
		}, []string{"op", "type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sredstva",
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Transactions rejected or failed, by operation, type and reason.",
		}, []string{"op", "type", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sredstva",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Time spent validating and applying transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.committed, m.rejected, m.duration)
	}
	return m
}
