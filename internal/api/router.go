// Package api exposes the daemon's HTTP and WebSocket interface.
package api

import (
	"net/http"
	"time"

	"github.com/playok/metricd/internal/collector"
	"github.com/playok/metricd/internal/logger"
	"github.com/playok/metricd/internal/store"
	"github.com/playok/metricd/internal/threshold"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(registry *collector.Registry, db *store.Store, hub *Hub,
	thresholds *threshold.Registry, evaluator *threshold.Evaluator,
	scheduler *collector.Scheduler) http.Handler {

	mux := http.NewServeMux()

	ca := &collectorsAPI{registry: registry}
	ma := &metricsAPI{store: db, registry: registry}
	sa := &settingsAPI{store: db, scheduler: scheduler}
	ta := &thresholdsAPI{store: db, registry: thresholds, evaluator: evaluator}

	// Collectors
	mux.HandleFunc("GET /api/v1/collectors", ca.list)
	mux.HandleFunc("PUT /api/v1/collectors/{id}/enable", ca.enable)
	mux.HandleFunc("PUT /api/v1/collectors/{id}/disable", ca.disable)

	// Metrics
	mux.HandleFunc("GET /api/v1/metrics/available", ma.available)
	mux.HandleFunc("GET /api/v1/metrics/query", ma.query)

	// Settings
	mux.HandleFunc("GET /api/v1/settings", sa.list)
	mux.HandleFunc("PUT /api/v1/settings", sa.update)
	mux.HandleFunc("DELETE /api/v1/settings/db-purge", sa.dbPurge)

	// Thresholds
	mux.HandleFunc("GET /api/v1/thresholds", ta.listRules)
	mux.HandleFunc("POST /api/v1/thresholds", ta.createRule)
	mux.HandleFunc("PUT /api/v1/thresholds/{id}", ta.updateRule)
	mux.HandleFunc("DELETE /api/v1/thresholds/{id}", ta.deleteRule)
	mux.HandleFunc("GET /api/v1/thresholds/active", ta.active)

	// WebSocket
	mux.HandleFunc("GET /api/v1/ws", hub.HandleWS)

	return withMiddleware(mux)
}

func withMiddleware(next http.Handler) http.Handler {
	log := logger.New().With("component", "http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Recovery
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("panic: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		// CORS for local development
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)

		log.Debugf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
