package taskdesk

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts gate decisions and action outcomes
type Metrics struct {
	decisions *prometheus.CounterVec
	actions   *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil registerer yields
// metrics that are counted but never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdesk",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Request gate decisions by route class and outcome.",
		}, []string{"route", "outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdesk",
			Subsystem: "gate",
			Name:      "actions_total",
			Help:      "Auth action invocations by action and result code.",
		}, []string{"action", "code"}),
	}

	if reg != nil {
		reg.MustRegister(m.decisions, m.actions)
	}

	return m
}

func (m *Metrics) observeDecision(class RouteClass, d Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(class.String(), d.Outcome.String()).Inc()
}

func (m *Metrics) observeAction(name ActionName, res ActionResult) {
	if m == nil {
		return
	}
	code := "OK"
	if res.Err != nil {
		code = res.Err.Code
	}
	m.actions.WithLabelValues(name.String(), code).Inc()
}
