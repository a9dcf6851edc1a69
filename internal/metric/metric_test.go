package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCloneDeepCopies(t *testing.T) {
	id := NewIdentity("my-name-1")
	id.Labels.Set("key1", "value1")
	id.Labels.Set("key2", "value2")

	cp := id.Clone()
	require.NotNil(t, cp)
	assert.Equal(t, "my-name-1", cp.Name)

	got, ok := cp.Labels.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", got)

	// Mutating the clone must not leak into the original.
	cp.Labels.Set("key3", "value3")
	cp.Labels.Remove("key2")
	assert.False(t, id.Labels.Has("key3"))
	assert.True(t, id.Labels.Has("key2"))
}

func TestIdentityCloneNil(t *testing.T) {
	var id *Identity
	assert.Nil(t, id.Clone())
}

func TestMetricCloneDeepCopies(t *testing.T) {
	cases := []*Metric{
		{
			Value:    Gauge(math.NaN()),
			Kind:     KindGauge,
			Plugin:   "uptime",
			Type:     "uptime",
			DSName:   "value",
			Identity: NewIdentity("uptime/uptime"),
		},
		{
			Value:    Derive(1000),
			Kind:     KindDerive,
			Plugin:   "cpu",
			Type:     "cpu",
			DSName:   "value",
			Time:     10,
			Meta:     map[string]string{"instance_id": "i-123"},
			Identity: NewIdentity("cpu/cpu"),
		},
	}

	for _, m := range cases {
		m.Identity.Labels.Set(HostLabel, "example.com")

		cp := m.Clone()
		require.NotNil(t, cp)
		assert.Equal(t, m.Type, cp.Type)
		assert.Equal(t, m.Kind, cp.Kind)
		require.NotSame(t, m.Identity, cp.Identity)

		host, ok := cp.Host()
		require.True(t, ok)
		assert.Equal(t, "example.com", host)

		cp.Identity.Labels.Set("extra", "x")
		assert.False(t, m.Identity.Labels.Has("extra"))

		if m.Meta != nil {
			cp.Meta["extra"] = "x"
			_, ok := m.Meta["extra"]
			assert.False(t, ok)
		}
	}
}

func TestValueFloat(t *testing.T) {
	assert.Equal(t, 1.5, Gauge(1.5).Float(KindGauge))
	assert.Equal(t, 42.0, Counter(42).Float(KindCounter))
	assert.Equal(t, -7.0, Derive(-7).Float(KindDerive))
	assert.Equal(t, 9.0, Absolute(9).Float(KindAbsolute))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("DERIVE")
	require.True(t, ok)
	assert.Equal(t, KindDerive, k)

	_, ok = ParseKind("bogus")
	assert.False(t, ok)
}
