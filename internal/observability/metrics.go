package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters exported on /metrics.
type Metrics struct {
	TokenVerifications *prometheus.CounterVec
	SignIns            *prometheus.CounterVec
	BackgroundTasks    *prometheus.CounterVec
}

// NewMetrics registers the account counters on reg. A nil reg yields
// unregistered counters, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokenVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_token_verifications_total",
			Help: "Access token verifications by outcome.",
		}, []string{"outcome"}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_sign_ins_total",
			Help: "Sign-in attempts by method and result.",
		}, []string{"method", "result"}),
		BackgroundTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_background_tasks_total",
			Help: "Best-effort background tasks by name and result.",
		}, []string{"task", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.TokenVerifications, m.SignIns, m.BackgroundTasks)
	}
	return m
}
