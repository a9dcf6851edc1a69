package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playok/metricd/internal/collector"
)

type collectorsAPI struct {
	registry *collector.Registry
}

func (a *collectorsAPI) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.List())
}

func (a *collectorsAPI) enable(w http.ResponseWriter, r *http.Request) {
	a.setEnabled(w, r.PathValue("id"), true)
}

func (a *collectorsAPI) disable(w http.ResponseWriter, r *http.Request) {
	a.setEnabled(w, r.PathValue("id"), false)
}

func (a *collectorsAPI) setEnabled(w http.ResponseWriter, id string, enabled bool) {
	var err error
	if enabled {
		err = a.registry.Enable(id)
	} else {
		err = a.registry.Disable(id)
	}
	if err != nil {
		if errors.Is(err, collector.ErrCollectorNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "collector not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
