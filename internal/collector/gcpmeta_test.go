package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCPMetadataCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Google", r.Header.Get("Metadata-Flavor"))
		w.Write([]byte(`{
			"ExtraMetricFields": "cluster, shard",
			"cluster": "prod-1",
			"shard": "7",
			"ignored": "x"
		}`))
	}))
	defer srv.Close()

	c := newGCPMetadataCollector(srv.URL, []string{"region"})
	samples, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, "metadata", s.Plugin)
	assert.Equal(t, "gauge", s.Type)
	require.Len(t, s.Values, 1)
	assert.Equal(t, 1.5, s.Values[0].Gauge)

	assert.Equal(t, "prod-1", s.Meta["cluster"])
	assert.Equal(t, "7", s.Meta["shard"])
	_, ok := s.Meta["ignored"]
	assert.False(t, ok, "fields not named in ExtraMetricFields must be skipped")
	_, ok = s.Meta["region"]
	assert.False(t, ok, "configured field absent from the response must be skipped")
}

func TestGCPMetadataFieldsAccumulate(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"ExtraMetricFields": "cluster", "cluster": "prod-1"}`))
			return
		}
		// Second response drops the field list but still serves the value.
		w.Write([]byte(`{"cluster": "prod-2"}`))
	}))
	defer srv.Close()

	c := newGCPMetadataCollector(srv.URL, nil)

	_, err := c.Collect(context.Background())
	require.NoError(t, err)

	samples, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prod-2", samples[0].Meta["cluster"],
		"once discovered, a field keeps being picked up")
}

func TestGCPMetadataServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newGCPMetadataCollector(srv.URL, nil)
	_, err := c.Collect(context.Background())
	assert.Error(t, err)
}
