package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/playok/metricd/internal/collector"
	"github.com/playok/metricd/internal/store"
)

type metricsAPI struct {
	store    *store.Store
	registry *collector.Registry
}

// query returns stored points for one identity name. Times are
// nanoseconds since the epoch; step (seconds) averages points per bucket.
func (a *metricsAPI) query(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}

	now := time.Now().UnixNano()

	from := now - int64(time.Hour) // default: last hour
	if s := r.URL.Query().Get("from"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			from = v
		}
	}

	to := now
	if s := r.URL.Query().Get("to"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			to = v
		}
	}

	step := 0
	if s := r.URL.Query().Get("step"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			step = v
		}
	}

	rows, err := a.store.QueryMetrics(name, from, to, step)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// metricGroup holds the metric names one plugin has produced.
type metricGroup struct {
	Plugin  string   `json:"plugin"`
	Metrics []string `json:"metrics"`
}

// available lists metric names grouped by plugin. It merges names seen
// in the store with the patterns the registered collectors declare.
func (a *metricsAPI) available(w http.ResponseWriter, r *http.Request) {
	pairs, err := a.store.DistinctMetrics()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	byPlugin := map[string][]string{}
	for _, p := range pairs {
		byPlugin[p[0]] = append(byPlugin[p[0]], p[1])
	}

	// Collectors that have not produced data yet still advertise their
	// declared names.
	for _, c := range a.registry.List() {
		if _, ok := byPlugin[c.ID]; !ok {
			byPlugin[c.ID] = c.Metrics
		}
	}

	plugins := make([]string, 0, len(byPlugin))
	for p := range byPlugin {
		plugins = append(plugins, p)
	}
	sort.Strings(plugins)

	groups := make([]metricGroup, 0, len(plugins))
	for _, p := range plugins {
		names := byPlugin[p]
		sort.Strings(names)
		groups = append(groups, metricGroup{Plugin: p, Metrics: names})
	}
	writeJSON(w, http.StatusOK, groups)
}
