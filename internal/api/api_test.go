package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playok/metricd/internal/collector"
	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/store"
	"github.com/playok/metricd/internal/threshold"
)

func testServer(t *testing.T) (*httptest.Server, *store.Store, *threshold.Registry) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := collector.NewRegistry(db)
	thresholds := threshold.NewRegistry()
	evaluator := threshold.NewEvaluator(thresholds)
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(NewRouter(registry, db, hub, thresholds, evaluator, nil))
	t.Cleanup(srv.Close)
	return srv, db, thresholds
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func doJSON(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestMetricsQuery(t *testing.T) {
	srv, db, _ := testServer(t)

	id := metric.NewIdentity("load/load/shortterm")
	id.Labels.Set(metric.HostLabel, "example.com")
	require.NoError(t, db.InsertMetric(&metric.Metric{
		Identity: id,
		Plugin:   "load", Type: "load", DSName: "shortterm",
		Kind:  metric.KindGauge,
		Value: metric.Gauge(1.5),
		Time:  1000,
	}))

	var rows []store.MetricRow
	resp := getJSON(t, srv.URL+"/api/v1/metrics/query?name=load/load/shortterm&from=0&to=2000", &rows)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.5, rows[0].Value)

	resp = getJSON(t, srv.URL+"/api/v1/metrics/query", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestThresholdRuleLifecycle(t *testing.T) {
	srv, _, thresholds := testServer(t)

	var created thresholdRule
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/thresholds", `{
		"host": "example.com", "plugin": "load", "type": "load",
		"data_source": "shortterm", "warning_max": 5, "enabled": true
	}`, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotZero(t, created.ID)
	assert.Nil(t, created.WarningMin, "unset bound serializes as null")
	require.NotNil(t, created.WarningMax)
	assert.Equal(t, 5.0, *created.WarningMax)

	// The in-memory registry was reloaded.
	assert.Equal(t, 1, thresholds.Len())
	th, ok := thresholds.Get("example.com", "load", "load", "shortterm")
	require.True(t, ok)
	assert.Equal(t, 5.0, th.WarningMax)

	var rules []thresholdRule
	getJSON(t, srv.URL+"/api/v1/thresholds", &rules)
	require.Len(t, rules, 1)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/thresholds/%d", srv.URL, created.ID), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, thresholds.Len())
}

func TestThresholdCreateRequiresType(t *testing.T) {
	srv, _, _ := testServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/thresholds", `{"plugin": "load"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCollectorsEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	var infos []collector.Info
	resp := getJSON(t, srv.URL+"/api/v1/collectors", &infos)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, infos)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/v1/collectors/nope/enable", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _, _ := testServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/v1/settings", `{"retention_hours": "48"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var settings map[string]string
	getJSON(t, srv.URL+"/api/v1/settings", &settings)
	assert.Equal(t, "48", settings["retention_hours"])
}
