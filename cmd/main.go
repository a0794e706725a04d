package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/busmaybe/internal/adapters/gtfsfeed"
	"github.com/okian/busmaybe/internal/adapters/http/api"
	"github.com/okian/busmaybe/internal/adapters/http/site"
	"github.com/okian/busmaybe/internal/adapters/http/swagger"
	repository "github.com/okian/busmaybe/internal/adapters/repository"
	app "github.com/okian/busmaybe/internal/app"
	"github.com/okian/busmaybe/internal/config"
	"github.com/okian/busmaybe/internal/domain/decision"
	"github.com/okian/busmaybe/internal/domain/dedupe"
	"github.com/okian/busmaybe/internal/domain/transit"
	"github.com/okian/busmaybe/pkg/logger"
	"github.com/okian/busmaybe/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "busmaybe exited with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the service from configuration, loading the GTFS feed
// when one is configured.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	reg, err := loadRegistry(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithRegistry(reg),
		app.WithLocation(loc),
		app.WithPicker(decision.NewPicker(cfg.RandomSeed)),
		app.WithDeduper(dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(cfg.IdempotencyCacheSize),
			dedupe.WithTTL(cfg.IdempotencyTTL),
		)),
		app.WithHistoryStore(repository.NewHistoryRing(cfg.HistorySize)),
		app.WithPredictionLog(repository.NewPredictionRing(cfg.AuditLogSize)),
		app.WithQueueSize(cfg.AuditQueueSize),
		app.WithWorkerCount(cfg.AuditWorkerCount),
		app.WithMaxPredictionsLimit(cfg.MaxPredictionsLimit),
	), nil
}

func loadRegistry(ctx context.Context, cfg *config.Config, log logger.Logger) (*transit.Registry, error) {
	if cfg.GTFSPath == "" {
		log.Info(ctx, "serving the bundled demo registry")
		return transit.DemoRegistry(), nil
	}
	return gtfsfeed.Load(ctx, cfg.GTFSPath,
		gtfsfeed.WithDefaultHeadway(cfg.DefaultHeadwayMin),
		gtfsfeed.WithLogger(log.Named("gtfs")),
	)
}

// newHandler registers the API, the demo page and the docs on one router.
func newHandler(ctx context.Context, svc *app.Service, log logger.Logger) http.Handler {
	router := httprouter.New()
	api.NewServer(svc).Register(ctx, router)
	site.Register(ctx, router)
	swagger.Register(ctx, router)
	return api.Handler(router, log.Named("http"))
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the gauges GetStats maintains.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
