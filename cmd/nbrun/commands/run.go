package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pythonot/nbrun/internal/cache"
	"github.com/pythonot/nbrun/internal/history"
	"github.com/pythonot/nbrun/internal/logfields"
	"github.com/pythonot/nbrun/internal/runner"
	"github.com/pythonot/nbrun/internal/workspace"
)

// RunCmd implements the 'run' command: one incremental pass over the gallery.
type RunCmd struct {
	Force   bool   `help:"Re-execute every notebook regardless of cache state"`
	Source  string `help:"Override the gallery source directory"`
	WorkDir string `name:"work-dir" help:"Override the execution working directory"`
	Cache   string `help:"Override the digest cache location"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, r.Source, r.WorkDir, r.Cache); err != nil {
		return err
	}

	c, err := cache.Load(cfg.CachePath)
	if err != nil {
		return err
	}
	slog.Debug("Loaded digest cache",
		logfields.Path(cfg.CachePath),
		logfields.Count(c.Len()))

	ws := workspace.NewManager(cfg.WorkDir)
	if err := ws.Ensure(); err != nil {
		return err
	}

	executor := runner.NewNbconvertExecutor(cfg.Jupyter, cfg.Timeout())
	if err := executor.Available(); err != nil {
		return err
	}

	tracker := runner.NewTracker(cfg, c, ws, executor).WithForce(r.Force)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()
	}

	ctx := context.Background()
	report, runErr := tracker.RunAll(ctx)
	if store != nil {
		if herr := store.RecordRun(ctx, report, runErr); herr != nil {
			if runErr == nil {
				runErr = herr
			} else {
				slog.Error("Failed to record run history", logfields.Error(herr))
			}
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("Checked %d notebook(s), re-executed %d\n", report.Discovered, report.Rebuilt())
	return nil
}
