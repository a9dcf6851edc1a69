package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/playok/metricd/internal/collector"
	"github.com/playok/metricd/internal/store"
)

type settingsAPI struct {
	store     *store.Store
	scheduler *collector.Scheduler
}

func (a *settingsAPI) list(w http.ResponseWriter, r *http.Request) {
	settings, err := a.store.AllSettings()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *settingsAPI) update(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	for k, v := range body {
		if err := a.store.SetSetting(k, v); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	// Apply collect_interval change to the running scheduler
	if v, ok := body["collect_interval"]; ok && a.scheduler != nil {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			a.scheduler.UpdateInterval(time.Duration(sec) * time.Second)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (a *settingsAPI) dbPurge(w http.ResponseWriter, r *http.Request) {
	hours := 0
	if s := r.URL.Query().Get("keep_hours"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			hours = v
		}
	}
	n, err := a.store.PurgeOlderThan(hours)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
