package collector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/store"
)

type fakeCollector struct {
	id      string
	samples []metric.Sample
}

func (c *fakeCollector) ID() string            { return c.id }
func (c *fakeCollector) Name() string          { return c.id }
func (c *fakeCollector) Description() string   { return "test collector" }
func (c *fakeCollector) MetricNames() []string { return []string{c.id + "/" + c.id} }
func (c *fakeCollector) Collect(ctx context.Context) ([]metric.Sample, error) {
	return c.samples, nil
}

func testRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewRegistry(s), s
}

func TestRegistryEnableDisable(t *testing.T) {
	r, _ := testRegistry(t)
	r.Register(&fakeCollector{id: "load"})
	r.Register(&fakeCollector{id: "memory"})

	assert.True(t, r.IsEnabled("load"), "collectors start enabled")

	require.NoError(t, r.Disable("load"))
	assert.False(t, r.IsEnabled("load"))
	assert.True(t, r.IsEnabled("memory"))

	assert.ErrorIs(t, r.Enable("nope"), ErrCollectorNotFound)

	enabled := r.EnabledCollectors()
	require.Len(t, enabled, 1)
	assert.Equal(t, "memory", enabled[0].ID())
}

func TestRegistryStatePersists(t *testing.T) {
	r, s := testRegistry(t)
	r.Register(&fakeCollector{id: "load"})
	require.NoError(t, r.Disable("load"))

	// A fresh registry backed by the same store sees the saved state.
	r2 := NewRegistry(s)
	r2.Register(&fakeCollector{id: "load"})
	assert.True(t, r2.IsEnabled("load"))
	require.NoError(t, r2.RestoreState())
	assert.False(t, r2.IsEnabled("load"))
}

func TestRegistryList(t *testing.T) {
	r, _ := testRegistry(t)
	r.Register(&fakeCollector{id: "uptime"})
	r.Register(&fakeCollector{id: "load"})

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "load", infos[0].ID)
	assert.Equal(t, "uptime", infos[1].ID)
	assert.Equal(t, []string{"load/load"}, infos[0].Metrics)
}
