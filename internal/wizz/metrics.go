package wizz

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts availability calls by outcome.
type Metrics struct {
	requests     *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// NewMetrics registers the availability client metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aycf_availability_requests_total",
				Help: "Availability endpoint calls by result.",
			},
			[]string{"result"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aycf_availability_breaker_state",
				Help: "Circuit breaker state of the availability client (1 = current state).",
			},
			[]string{"state"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.breakerState} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	m.setState(stateClosed)
	return m, nil
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

func (m *Metrics) setState(s breakerState) {
	if m == nil {
		return
	}
	for _, st := range []breakerState{stateClosed, stateOpen, stateHalfOpen} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.breakerState.WithLabelValues(string(st)).Set(v)
	}
}
