package threshold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playok/metricd/internal/metric"
)

func gaugeMetric(name, host, plugin, typ, ds string, v float64) *metric.Metric {
	id := metric.NewIdentity(name)
	id.Labels.Set(metric.HostLabel, host)
	return &metric.Metric{
		Identity: id,
		Plugin:   plugin,
		Type:     typ,
		DSName:   ds,
		Kind:     metric.KindGauge,
		Value:    metric.Gauge(v),
	}
}

func insertRule(reg *Registry, th Threshold) {
	if th.WarningMin == 0 {
		th.WarningMin = math.NaN()
	}
	if th.FailureMin == 0 {
		th.FailureMin = math.NaN()
	}
	reg.Insert(&th)
}

func TestEvaluatorStateTransitions(t *testing.T) {
	reg := NewRegistry()
	insertRule(reg, Threshold{
		Host: "example.com", Plugin: "load", Type: "load", DataSource: "shortterm",
		WarningMax: 5, FailureMax: 10,
	})
	ev := NewEvaluator(reg)

	m := func(v float64) *metric.Metric {
		return gaugeMetric("load/load/shortterm", "example.com", "load", "load", "shortterm", v)
	}

	_, fired := ev.Check(m(1))
	assert.False(t, fired, "okay metric must not fire")

	event, fired := ev.Check(m(7))
	require.True(t, fired)
	assert.Equal(t, StateWarning, event.State)
	assert.Equal(t, "load/load/shortterm", event.MetricName)
	assert.Equal(t, "example.com", event.Host)

	_, fired = ev.Check(m(8))
	assert.False(t, fired, "repeated warning must not fire again")

	event, fired = ev.Check(m(12))
	require.True(t, fired)
	assert.Equal(t, StateFailure, event.State)

	event, fired = ev.Check(m(2))
	require.True(t, fired)
	assert.Equal(t, StateOkay, event.State)

	assert.Empty(t, ev.Active())
}

func TestEvaluatorNoThresholdNoEvent(t *testing.T) {
	ev := NewEvaluator(NewRegistry())
	_, fired := ev.Check(gaugeMetric("uptime/uptime", "example.com", "uptime", "uptime", "value", 1e9))
	assert.False(t, fired)
}

func TestEvaluatorHits(t *testing.T) {
	reg := NewRegistry()
	insertRule(reg, Threshold{
		Plugin: "load", Type: "load", DataSource: "shortterm",
		WarningMax: 5, FailureMax: math.NaN(), Hits: 3,
	})
	ev := NewEvaluator(reg)
	m := func(v float64) *metric.Metric {
		return gaugeMetric("load/load/shortterm", "example.com", "load", "load", "shortterm", v)
	}

	_, fired := ev.Check(m(7))
	assert.False(t, fired, "first breach below hit count")
	_, fired = ev.Check(m(7))
	assert.False(t, fired, "second breach below hit count")
	event, fired := ev.Check(m(7))
	require.True(t, fired, "third consecutive breach must raise")
	assert.Equal(t, StateWarning, event.State)
}

func TestEvaluatorHysteresis(t *testing.T) {
	reg := NewRegistry()
	insertRule(reg, Threshold{
		Plugin: "load", Type: "load", DataSource: "shortterm",
		WarningMax: 5, FailureMax: math.NaN(), Hysteresis: 1,
	})
	ev := NewEvaluator(reg)
	m := func(v float64) *metric.Metric {
		return gaugeMetric("load/load/shortterm", "example.com", "load", "load", "shortterm", v)
	}

	_, fired := ev.Check(m(6))
	require.True(t, fired)

	// Dipping just below the bound stays in warning.
	_, fired = ev.Check(m(4.5))
	assert.False(t, fired)
	assert.Len(t, ev.Active(), 1)

	// Clearing the bound by more than the hysteresis recovers.
	event, fired := ev.Check(m(3.5))
	require.True(t, fired)
	assert.Equal(t, StateOkay, event.State)
}

func TestEvaluatorInvert(t *testing.T) {
	reg := NewRegistry()
	insertRule(reg, Threshold{
		Plugin: "load", Type: "load", DataSource: "shortterm",
		WarningMin: 1, WarningMax: 10, FailureMin: math.NaN(), FailureMax: math.NaN(),
		Invert: true,
	})
	ev := NewEvaluator(reg)
	m := func(v float64) *metric.Metric {
		return gaugeMetric("load/load/shortterm", "example.com", "load", "load", "shortterm", v)
	}

	event, fired := ev.Check(m(5))
	require.True(t, fired, "value inside an inverted range breaches")
	assert.Equal(t, StateWarning, event.State)

	event, fired = ev.Check(m(20))
	require.True(t, fired, "value outside an inverted range recovers")
	assert.Equal(t, StateOkay, event.State)
}

func TestEvaluatorPersist(t *testing.T) {
	reg := NewRegistry()
	insertRule(reg, Threshold{
		Plugin: "load", Type: "load", DataSource: "shortterm",
		WarningMax: 5, FailureMax: math.NaN(), Persist: true,
	})
	ev := NewEvaluator(reg)
	m := func(v float64) *metric.Metric {
		return gaugeMetric("load/load/shortterm", "example.com", "load", "load", "shortterm", v)
	}

	_, fired := ev.Check(m(7))
	require.True(t, fired)
	_, fired = ev.Check(m(8))
	assert.True(t, fired, "persist fires on every breach")
}
