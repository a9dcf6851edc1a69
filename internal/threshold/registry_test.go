package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playok/metricd/internal/metric"
)

func testMetric(host, plugin, typ, ds string) *metric.Metric {
	id := metric.NewIdentity(plugin + "/" + typ + "/" + ds)
	if host != "" {
		id.Labels.Set(metric.HostLabel, host)
	}
	return &metric.Metric{
		Plugin:   plugin,
		Type:     typ,
		DSName:   ds,
		Identity: id,
	}
}

func TestInsertGetExact(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Host: "h", Plugin: "p", Type: "t", DataSource: "d", WarningMax: 90})

	th, ok := r.Get("h", "p", "t", "d")
	require.True(t, ok)
	assert.Equal(t, 90.0, th.WarningMax)

	_, ok = r.Get("h", "p", "t", "other")
	assert.False(t, ok)
}

func TestInsertOverwritesIdenticalKey(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Type: "t", WarningMax: 50})
	r.Insert(&Threshold{Type: "t", WarningMax: 75})

	require.Equal(t, 1, r.Len())
	th, ok := r.Get("", "", "t", "")
	require.True(t, ok)
	assert.Equal(t, 75.0, th.WarningMax)
}

func TestSearchPrefersMostSpecific(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Host: "h", Plugin: "p", Type: "t", DataSource: "d", WarningMax: 10})
	r.Insert(&Threshold{Type: "t", WarningMax: 99})

	th, ok := r.Search(testMetric("h", "p", "t", "d"))
	require.True(t, ok)
	assert.Equal(t, 10.0, th.WarningMax)

	// Different host and plugin fall all the way through to the
	// type-only record.
	th, ok = r.Search(testMetric("other", "x", "t", "y"))
	require.True(t, ok)
	assert.Equal(t, 99.0, th.WarningMax)

	_, ok = r.Search(testMetric("other", "x", "unknown", "y"))
	assert.False(t, ok)
}

func TestSearchCascadeOrder(t *testing.T) {
	// One record per cascade tier; removing the best hit must expose
	// the next one, in exactly this order.
	tiers := []Threshold{
		{Host: "h", Plugin: "p", Type: "t", DataSource: "d"},
		{Host: "h", Plugin: "p", Type: "t"},
		{Host: "h", Type: "t", DataSource: "d"},
		{Host: "h", Type: "t"},
		{Plugin: "p", Type: "t", DataSource: "d"},
		{Plugin: "p", Type: "t"},
		{Type: "t", DataSource: "d"},
		{Type: "t"},
	}

	r := NewRegistry()
	for i := range tiers {
		tiers[i].WarningMax = float64(i)
		r.Insert(&tiers[i])
	}

	m := testMetric("h", "p", "t", "d")
	for i, tier := range tiers {
		th, ok := r.Search(m)
		require.True(t, ok, "tier %d", i)
		assert.Equal(t, float64(i), th.WarningMax, "tier %d", i)
		require.True(t, r.Remove(tier.Host, tier.Plugin, tier.Type, tier.DataSource))
	}
	_, ok := r.Search(m)
	assert.False(t, ok)
}

func TestSearchWithoutHostLabel(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Type: "t"})

	m := testMetric("", "p", "t", "d") // no host label at all
	_, ok := r.Search(m)
	assert.False(t, ok, "missing host label is a miss, not an error")

	_, ok = r.Search(nil)
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Host: "h", Plugin: "p", Type: "t", DataSource: "d", FailureMax: 95})

	th, err := r.Snapshot(testMetric("h", "p", "t", "d"))
	require.NoError(t, err)
	assert.Equal(t, 95.0, th.FailureMax)
	assert.Nil(t, th.next)

	// The snapshot is an owned copy; mutating it does not touch the
	// registry.
	th.FailureMax = 1
	stored, ok := r.Get("h", "p", "t", "d")
	require.True(t, ok)
	assert.Equal(t, 95.0, stored.FailureMax)
}

func TestSnapshotErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Snapshot(nil)
	assert.ErrorIs(t, err, ErrInvalidMetric)

	_, err = r.Snapshot(testMetric("h", "p", "t", "d"))
	assert.ErrorIs(t, err, ErrNoThreshold)
}

func TestEachVisitsInKeyOrder(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Threshold{Host: "b", Type: "t"})
	r.Insert(&Threshold{Host: "a", Type: "t"})

	var keys []string
	r.Each(func(th Threshold) bool {
		keys = append(keys, th.Key())
		return true
	})
	assert.Equal(t, []string{"a//t/", "b//t/"}, keys)
}
