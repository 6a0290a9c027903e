package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formworks/licensing/app/repository"
	"github.com/formworks/licensing/internal/pkg/cache"
	"github.com/formworks/licensing/internal/pkg/catalog"
	"github.com/formworks/licensing/internal/pkg/database"
	"github.com/formworks/licensing/internal/pkg/env"
	"github.com/formworks/licensing/internal/pkg/logger"
	"github.com/formworks/licensing/internal/pkg/metrics"
	"github.com/formworks/licensing/internal/pkg/usage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// licensed hosts the shared runtime of the licensing subsystem: it serves
// the catalog (with SIGHUP hot-swap), garbage-collects elapsed usage
// windows and exports prometheus metrics. The caller-facing API layer is a
// separate deployment that imports the service packages directly.
func main() {
	env.SetupEnvFile()
	log := logger.Get()
	defer log.Sync()

	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.DB)

	catalogPath := env.GetEnv("CATALOG_PATH", "catalog.json")
	snap, err := catalog.LoadFile(catalogPath)
	if err != nil {
		log.Fatal("catalog load failed", zap.String("path", catalogPath), zap.Error(err))
	}
	store := catalog.NewStore(snap)
	log.Info("catalog loaded", zap.String("path", catalogPath), zap.Uint64("version", store.Version()))

	grace, err := time.ParseDuration(env.GetEnv("USAGE_GC_GRACE", "168h"))
	if err != nil {
		log.Fatal("invalid USAGE_GC_GRACE", zap.Error(err))
	}
	usageStore := usage.NewStore(cache.GetClient(), repository.GetGlobalRepositories().Usage, log, grace)

	// /metrics for prometheus scrapes; no application HTTP surface lives here.
	metricsAddr := ":" + env.GetEnv("METRICS_PORT", "9100")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Error("metrics listener stopped", zap.Error(err))
		}
	}()

	gcInterval, err := time.ParseDuration(env.GetEnv("USAGE_GC_INTERVAL", "1h"))
	if err != nil {
		log.Fatal("invalid USAGE_GC_INTERVAL", zap.Error(err))
	}
	gcTicker := time.NewTicker(gcInterval)
	defer gcTicker.Stop()

	// SIGHUP swaps in a freshly validated catalog; a bad file keeps the
	// current version serving.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	log.Info("licensed running", zap.String("metrics_addr", metricsAddr))
	for {
		select {
		case <-gcTicker.C:
			removed, err := usageStore.GC(context.Background())
			if err != nil {
				log.Warn("usage GC failed", zap.Error(err))
			} else if removed > 0 {
				log.Info("usage GC", zap.Int64("rows_removed", removed))
			}
		case <-reload:
			snap, err := catalog.LoadFile(catalogPath)
			if err != nil {
				log.Error("catalog reload rejected", zap.String("path", catalogPath), zap.Error(err))
				continue
			}
			version := store.Replace(snap)
			metrics.CatalogSwaps.Inc()
			log.Info("catalog swapped", zap.Uint64("version", version))
		case sig := <-stop:
			log.Info("shutting down", zap.String("signal", sig.String()))
			return
		}
	}
}
