package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exposes samples as a counter and a latency histogram.
type Prometheus struct {
	presses  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		presses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopbuttons",
			Name:      "presses_total",
			Help:      "Button presses by action and result.",
		}, []string{"action", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopbuttons",
			Name:      "webhook_duration_seconds",
			Help:      "Time spent delivering a webhook, retries included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"action"}),
	}
	registerer.MustRegister(p.presses, p.duration)
	return p
}

func (p *Prometheus) Record(sample Sample) {
	p.presses.WithLabelValues(sample.Action.String(), sample.Result).Inc()
	if sample.Result != ResultDropped {
		p.duration.WithLabelValues(sample.Action.String()).Observe(sample.Duration.Seconds())
	}
}
