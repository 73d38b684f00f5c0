package pruner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProgressGauge publishes a pruner's low-water mark, labeled by pruner name.
// Injected at construction so the core stays testable in isolation.
type ProgressGauge interface {
	Set(pruner string, version uint64)
}

// NoopGauge discards all observations.
type NoopGauge struct{}

func (NoopGauge) Set(string, uint64) {}

// PrometheusGauge publishes low-water marks to a Prometheus gauge vector.
type PrometheusGauge struct {
	vec *prometheus.GaugeVec
}

// NewPrometheusGauge registers the gauge vector with reg and returns the sink.
func NewPrometheusGauge(reg prometheus.Registerer) *PrometheusGauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chronicle_pruner_least_readable_version",
		Help: "Lowest ledger version guaranteed readable, per pruner.",
	}, []string{"pruner"})
	reg.MustRegister(vec)
	return &PrometheusGauge{vec: vec}
}

// Set implements ProgressGauge.
func (g *PrometheusGauge) Set(pruner string, version uint64) {
	g.vec.WithLabelValues(pruner).Set(float64(version))
}
