package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecobeehub"

// Result label values
const (
	ResultOK       = "ok"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

// Metrics holds the hub's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	polls          *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	fullFetches    *prometheus.CounterVec
	changedDevices prometheus.Counter
	discoveries    *prometheus.CounterVec
	tokenExpiry    prometheus.Gauge
	pollDuration   prometheus.Histogram
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"result"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"result"}),
		fullFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thermostat_fetches_total",
			Help:      "Full thermostat fetches by outcome.",
		}, []string{"result"}),
		changedDevices: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changed_thermostats_total",
			Help:      "Thermostats reported as changed by the revision diff.",
		}),
		discoveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discoveries_total",
			Help:      "Discovery runs by outcome.",
		}, []string{"result"}),
		tokenExpiry: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "token_expiry_timestamp_seconds",
			Help:      "Unix time at which the current access token expires, 0 when unauthorized.",
		}),
		pollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of poll cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObservePoll(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFetch(result string) {
	if m == nil {
		return
	}
	m.fullFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) AddChanged(n int) {
	if m == nil {
		return
	}
	m.changedDevices.Add(float64(n))
}

func (m *Metrics) ObserveDiscovery(result string) {
	if m == nil {
		return
	}
	m.discoveries.WithLabelValues(result).Inc()
}

// SetTokenExpiry records the expiry of the current token; the zero time
// clears it.
func (m *Metrics) SetTokenExpiry(expires time.Time) {
	if m == nil {
		return
	}
	if expires.IsZero() {
		m.tokenExpiry.Set(0)
		return
	}
	m.tokenExpiry.Set(float64(expires.Unix()))
}
