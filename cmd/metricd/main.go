package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/playok/metricd/internal/api"
	"github.com/playok/metricd/internal/collector"
	"github.com/playok/metricd/internal/config"
	"github.com/playok/metricd/internal/logger"
	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/pipeline"
	"github.com/playok/metricd/internal/schema"
	"github.com/playok/metricd/internal/store"
	"github.com/playok/metricd/internal/threshold"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "start":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStart()
	case "stop":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStop()
	case "status":
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdStatus()
	case "run":
		// Foreground mode (also used internally by daemon child)
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		cmdRun()
	case "version":
		fmt.Printf("metricd %s\n", version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, `metricd — host metrics collection daemon (%s)

Usage:
  %s <command> [flags]

Commands:
  start          Start daemon (background)
  stop           Stop daemon
  status         Show daemon status
  run            Run in foreground
  version        Print version

Flags:
  -config PATH     Config file path (default: config.yaml)
  -listen ADDR     Listen address (default: 127.0.0.1:9125)
  -db PATH         SQLite database path
  -types-db PATH   types.db overlay file
  -hostname NAME   Host label value
  -pid-file P      PID file path
  -log-file P      Log file path
  -log-level L     Log level (debug, info, warning, error)

Examples:
  %s start
  %s start -config /etc/metricd/config.yaml
  %s stop
  %s run
`, version, exe, exe, exe, exe, exe)
}

// ---------------------------------------------------------------------------
// run: foreground daemon (also used by daemon child)
// ---------------------------------------------------------------------------

func cmdRun() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	log := logger.New().With("component", "main")

	// Open store
	db, err := store.New(cfg.DBPath)
	if err != nil {
		log.Errorf("failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Apply DB-persisted settings (override config defaults)
	applyDBSettings(db, cfg, log)

	// Load the type schema, with an optional types.db overlay
	types := schema.Default()
	if cfg.TypesDB != "" {
		types, err = schema.LoadFile(cfg.TypesDB)
		if err != nil {
			log.Errorf("failed to load %s: %v", cfg.TypesDB, err)
			os.Exit(1)
		}
		log.Infof("loaded %d types from %s", types.Len(), cfg.TypesDB)
	}

	// Threshold registry, loaded from stored rules
	thresholds := threshold.NewRegistry()
	if n, err := db.LoadThresholds(thresholds); err != nil {
		log.Warningf("failed to load thresholds: %v", err)
	} else if n > 0 {
		log.Infof("loaded %d thresholds", n)
	}
	evaluator := threshold.NewEvaluator(thresholds)

	// WebSocket hub
	hub := api.NewHub()
	go hub.Run()

	// Write queue: store + threshold check + live broadcast per metric
	queue := pipeline.NewWriteQueue(types, cfg.DrainOnStop)
	sink := func(m *metric.Metric) {
		if err := db.InsertMetric(m); err != nil {
			log.Warningf("store: %v", err)
		}
		if ev, fired := evaluator.Check(m); fired {
			log.Infof("threshold: %s", ev.Message)
			hub.BroadcastEvent(ev)
		}
		hub.BroadcastMetric(m)
	}
	if err := queue.StartWorkers(cfg.WriteWorkers, sink); err != nil {
		log.Errorf("failed to start write workers: %v", err)
		os.Exit(1)
	}

	// Collector registry and scheduler
	registry := collector.NewRegistry(db)
	registerAllCollectors(registry, cfg)
	if err := registry.RestoreState(); err != nil {
		log.Warningf("failed to restore collector state: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	sched := collector.NewScheduler(registry, queue, cfg.Hostname,
		time.Duration(cfg.CollectInterval)*time.Second)
	sched.Start(ctx)

	// Retention purge loop
	go runRetentionPurge(ctx, db, cfg.RetentionHours, log)

	// HTTP server
	router := api.NewRouter(registry, db, hub, thresholds, evaluator, sched)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}
	go func() {
		log.Infof("metricd %s listening on http://%s", version, cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
			stop()
		}
	}()

	// Wait for signal
	<-ctx.Done()
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sched.Stop()
	queue.StopWorkers()
	srv.Shutdown(shutCtx)

	os.Remove(cfg.PidFile)
	log.Info("goodbye")
}

func registerAllCollectors(registry *collector.Registry, cfg *config.Config) {
	registry.Register(collector.NewCPUCollector())
	registry.Register(collector.NewDFCollector())
	registry.Register(collector.NewLoadCollector())
	registry.Register(collector.NewMemoryCollector())
	registry.Register(collector.NewNetworkCollector())
	registry.Register(collector.NewUptimeCollector())
	registry.Register(collector.NewGCPMetadataCollector(cfg.ExtraMetadataFields()))
}

func runRetentionPurge(ctx context.Context, db *store.Store, hours int, log *logger.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.PurgeOlderThan(hours)
			if err != nil {
				log.Warningf("purge: %v", err)
			} else if n > 0 {
				log.Infof("purged %d old metrics", n)
			}
		}
	}
}

func applyDBSettings(db *store.Store, cfg *config.Config, log *logger.Logger) {
	if v, err := db.GetSetting("collect_interval"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CollectInterval = n
			log.Infof("collect_interval from DB: %ds", n)
		}
	}
	if v, err := db.GetSetting("retention_hours"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetentionHours = n
			log.Infof("retention_hours from DB: %dh", n)
		}
	}
}

// ---------------------------------------------------------------------------
// PID file helpers
// ---------------------------------------------------------------------------

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s", path)
	}
	return pid, nil
}
