package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePoll(ResultOK, time.Second)
	m.ObservePoll(ResultOK, time.Second)
	m.ObservePoll(ResultSkipped, 0)
	m.ObserveRefresh(ResultRejected)
	m.ObserveFetch(ResultFailed)
	m.AddChanged(3)
	m.ObserveDiscovery(ResultOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.polls.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fullFetches.WithLabelValues(ResultFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.changedDevices))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discoveries.WithLabelValues(ResultOK)))
}

func TestMetrics_TokenExpiry(t *testing.T) {
	m := New(prometheus.NewRegistry())

	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.SetTokenExpiry(expires)
	assert.Equal(t, float64(expires.Unix()), testutil.ToFloat64(m.tokenExpiry))

	m.SetTokenExpiry(time.Time{})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tokenExpiry))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObservePoll(ResultOK, time.Second)
		m.ObserveRefresh(ResultOK)
		m.ObserveFetch(ResultOK)
		m.AddChanged(1)
		m.ObserveDiscovery(ResultOK)
		m.SetTokenExpiry(time.Now())
	})
}
