package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/pythonot/nbrun/internal/cache"
	"github.com/pythonot/nbrun/internal/events"
	"github.com/pythonot/nbrun/internal/history"
	"github.com/pythonot/nbrun/internal/logfields"
	"github.com/pythonot/nbrun/internal/metrics"
	"github.com/pythonot/nbrun/internal/runner"
	"github.com/pythonot/nbrun/internal/watch"
	"github.com/pythonot/nbrun/internal/workspace"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Source      string `help:"Gallery source directory (overrides config)"`
	WorkDir     string `name:"work-dir" help:"Working directory for execution copies (overrides config)"`
	Cache       string `help:"Cache file path (overrides config)"`
	MetricsAddr string `name:"metrics-addr" help:"Address for the Prometheus metrics endpoint (overrides config)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, w.Source, w.WorkDir, w.Cache); err != nil {
		return err
	}
	if w.MetricsAddr != "" {
		cfg.Watch.MetricsAddr = w.MetricsAddr
	}

	c, err := cache.Load(cfg.CachePath)
	if err != nil {
		return err
	}

	ws := workspace.NewManager(cfg.WorkDir)
	if err := ws.Ensure(); err != nil {
		return err
	}

	exec := runner.NewNbconvertExecutor(cfg.Jupyter, cfg.Timeout())
	if err := exec.Available(); err != nil {
		return err
	}

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	tracker := runner.NewTracker(cfg, c, ws, exec).WithRecorder(rec)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var pub *events.Publisher
	if cfg.Events.Enabled {
		pub, err = events.NewPublisher(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			return err
		}
		defer pub.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Each pass re-checks the whole gallery. Failures are logged but do not
	// stop the watch loop; the next filesystem event triggers another pass.
	pass := func(passCtx context.Context) {
		report, runErr := tracker.RunAll(passCtx)
		if store != nil && report != nil {
			if herr := store.RecordRun(passCtx, report, runErr); herr != nil {
				slog.Error("Failed to record run history", logfields.Error(herr))
			}
		}
		if pub != nil && report != nil {
			for _, rb := range report.Rebuilds {
				event := events.RebuildEvent{
					RunID:      report.RunID,
					Notebook:   rb.Notebook,
					Digest:     rb.Digest,
					Status:     string(rb.Status),
					DurationMS: rb.Duration.Milliseconds(),
				}
				if perr := pub.PublishRebuild(&event); perr != nil {
					slog.Error("Failed to publish rebuild event", logfields.Notebook(rb.Notebook), logfields.Error(perr))
				}
			}
		}
		if runErr != nil {
			slog.Error("Watch pass failed", logfields.Error(runErr))
			return
		}
		slog.Info("Watch pass complete",
			logfields.RunID(report.RunID),
			logfields.Count(report.Rebuilt()),
			logfields.DurationMS(float64(report.Duration().Milliseconds())))
	}

	watcher, err := watch.NewWatcher(cfg.SourceDir, cfg.Pattern, cfg.Watch.Debounce())
	if err != nil {
		return err
	}

	var sched *watch.Scheduler
	if cfg.Watch.RescanMinutes > 0 {
		sched, err = watch.NewScheduler()
		if err != nil {
			return err
		}
	}

	svc := watch.NewService(watcher, sched, cfg.Watch.RescanInterval(), pass)

	var metricsSrv *http.Server
	if cfg.Watch.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
		metricsSrv = &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", "addr", cfg.Watch.MetricsAddr)
			if serr := metricsSrv.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
				slog.Error("Metrics server error", logfields.Error(serr))
			}
		}()
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watch service: %w", err)
	}

	slog.Info("Watching gallery for changes",
		logfields.Path(cfg.SourceDir),
		"pattern", cfg.Pattern)

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watch service...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if metricsSrv != nil {
		if serr := metricsSrv.Shutdown(stopCtx); serr != nil {
			slog.Error("Metrics server shutdown error", logfields.Error(serr))
		}
	}
	if err := svc.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop watch service: %w", err)
	}

	slog.Info("Watch service stopped")
	return nil
}
