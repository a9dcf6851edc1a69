package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/playok/metricd/internal/store"
	"github.com/playok/metricd/internal/threshold"
)

type thresholdsAPI struct {
	store     *store.Store
	registry  *threshold.Registry
	evaluator *threshold.Evaluator
}

// thresholdRule is the wire form of a rule. Bounds are pointers so that
// unset bounds (NaN internally) round-trip as null.
type thresholdRule struct {
	ID         int64    `json:"id,omitempty"`
	Host       string   `json:"host"`
	Plugin     string   `json:"plugin"`
	Type       string   `json:"type"`
	DataSource string   `json:"data_source"`
	WarningMin *float64 `json:"warning_min"`
	WarningMax *float64 `json:"warning_max"`
	FailureMin *float64 `json:"failure_min"`
	FailureMax *float64 `json:"failure_max"`
	Hysteresis float64  `json:"hysteresis"`
	Hits       int      `json:"hits"`
	Invert     bool     `json:"invert"`
	Persist    bool     `json:"persist"`
	Enabled    bool     `json:"enabled"`
}

func toWire(r store.ThresholdRule) thresholdRule {
	return thresholdRule{
		ID:         r.ID,
		Host:       r.Host,
		Plugin:     r.Plugin,
		Type:       r.Type,
		DataSource: r.DataSource,
		WarningMin: boundPtr(r.WarningMin),
		WarningMax: boundPtr(r.WarningMax),
		FailureMin: boundPtr(r.FailureMin),
		FailureMax: boundPtr(r.FailureMax),
		Hysteresis: r.Hysteresis,
		Hits:       r.Hits,
		Invert:     r.Invert,
		Persist:    r.Persist,
		Enabled:    r.Enabled,
	}
}

func fromWire(in thresholdRule) store.ThresholdRule {
	r := store.ThresholdRule{ID: in.ID, Enabled: in.Enabled}
	r.Host = in.Host
	r.Plugin = in.Plugin
	r.Type = in.Type
	r.DataSource = in.DataSource
	r.WarningMin = boundVal(in.WarningMin)
	r.WarningMax = boundVal(in.WarningMax)
	r.FailureMin = boundVal(in.FailureMin)
	r.FailureMax = boundVal(in.FailureMax)
	r.Hysteresis = in.Hysteresis
	r.Hits = in.Hits
	r.Invert = in.Invert
	r.Persist = in.Persist
	return r
}

func boundPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func boundVal(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (a *thresholdsAPI) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := a.store.ListThresholdRules()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]thresholdRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toWire(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *thresholdsAPI) createRule(w http.ResponseWriter, r *http.Request) {
	var in thresholdRule
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if in.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}
	rule := fromWire(in)
	id, err := a.store.CreateThresholdRule(&rule)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	rule.ID = id
	if err := a.reloadRegistry(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, toWire(rule))
}

func (a *thresholdsAPI) updateRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in thresholdRule
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	in.ID = id
	rule := fromWire(in)
	if err := a.store.UpdateThresholdRule(&rule); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := a.reloadRegistry(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toWire(rule))
}

func (a *thresholdsAPI) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := a.store.DeleteThresholdRule(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := a.reloadRegistry(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// active returns the metrics currently in a raised state.
func (a *thresholdsAPI) active(w http.ResponseWriter, r *http.Request) {
	states := a.evaluator.Active()
	out := make(map[string]string, len(states))
	for name, st := range states {
		out[name] = st.String()
	}
	writeJSON(w, http.StatusOK, out)
}

// reloadRegistry rebuilds the in-memory registry from the store after a
// rule change.
func (a *thresholdsAPI) reloadRegistry() error {
	a.registry.Clear()
	_, err := a.store.LoadThresholds(a.registry)
	return err
}
