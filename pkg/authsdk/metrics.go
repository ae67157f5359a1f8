package authsdk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for session activity. A nil *Metrics
// records nothing.
type Metrics struct {
	checks       *prometheus.CounterVec
	purges       *prometheus.CounterVec
	logins       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	refreshCalls prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundme_session_checks_total",
			Help: "Session checks by outcome",
		}, []string{"outcome"}),
		purges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundme_session_purges_total",
			Help: "Stored credentials discarded by reason",
		}, []string{"reason"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundme_session_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fundme_session_refreshes_total",
			Help: "Unauthorized responses resolved by the refresher, by outcome",
		}, []string{"outcome"}),
		refreshCalls: f.NewCounter(prometheus.CounterOpts{
			Name: "fundme_session_refresh_calls_total",
			Help: "Calls made to the refresh endpoint",
		}),
	}
}

func (m *Metrics) recordCheck(outcome string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordPurge(reason string) {
	if m == nil {
		return
	}
	m.purges.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordRefreshCall() {
	if m == nil {
		return
	}
	m.refreshCalls.Inc()
}
