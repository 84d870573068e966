package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rpc_gateway"

type metrics struct {
	probeLatency  *prometheus.HistogramVec
	probeFailures *prometheus.CounterVec
	calls         *prometheus.CounterVec
	broadcasts    *prometheus.CounterVec
	primary       *prometheus.GaugeVec
}

// newMetrics returns nil when reg is nil; every method is nil-safe.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &metrics{
		probeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_latency_seconds",
			Help:      "Latency of successful liveness probes.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"endpoint"}),
		probeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_failures_total",
			Help:      "Number of failed liveness probes.",
		}, []string{"endpoint"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_total",
			Help:      "Calls dispatched to the primary endpoint.",
		}, []string{"endpoint", "method", "outcome"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "broadcast_attempts_total",
			Help:      "Per-endpoint transaction submissions.",
		}, []string{"endpoint", "outcome"}),
		primary: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "primary_endpoint",
			Help:      "Pool index of the endpoint selected as primary by the last call.",
		}, []string{"network"}),
	}
	for _, c := range []prometheus.Collector{m.probeLatency, m.probeFailures, m.calls, m.broadcasts, m.primary} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *metrics) observeProbe(endpoint string, latency time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.probeFailures.WithLabelValues(endpoint).Inc()
		return
	}
	m.probeLatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}

func (m *metrics) observeCall(endpoint, method string, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(endpoint, method, outcome(err)).Inc()
}

func (m *metrics) observeBroadcast(endpoint string, err error) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(endpoint, outcome(err)).Inc()
}

func (m *metrics) setPrimary(network string, index int) {
	if m == nil {
		return
	}
	m.primary.WithLabelValues(network).Set(float64(index))
}
