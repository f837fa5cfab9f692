package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported by the counter service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	actions  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	sessions prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftcounter",
			Name:      "api_calls_total",
			Help:      "Calls made to the gift API by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "giftcounter",
			Name:      "api_call_duration_seconds",
			Help:      "Latency of gift API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftcounter",
			Name:      "form_actions_total",
			Help:      "Counter form actions by action and displayed outcome.",
		}, []string{"action", "outcome"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftcounter",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a later action cleared their result.",
		}, []string{"action"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "giftcounter",
			Name:      "sessions_active",
			Help:      "Browser sessions holding counter form state.",
		}),
	}
	reg.MustRegister(m.calls, m.duration, m.actions, m.dropped, m.sessions)
	return m
}

// ObserveCall records one gift API call.
func (m *Metrics) ObserveCall(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// Action records the outcome of a controller action.
func (m *Metrics) Action(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

// Dropped records a stale response that was not applied.
func (m *Metrics) Dropped(action string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(action).Inc()
}

// SetSessions reports the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
