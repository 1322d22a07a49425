package commands

import (
	"context"
	"fmt"
	"time"

	nberrors "github.com/pythonot/nbrun/internal/errors"
	"github.com/pythonot/nbrun/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `default:"10" help:"Number of recent runs to show"`
	RunID string `name:"run" help:"Show per-notebook detail for one run ID"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return nberrors.New(nberrors.CategoryHistory, "run history is disabled in configuration")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if h.RunID != "" {
		return printRunDetail(ctx, store, h.RunID)
	}
	return printRecentRuns(ctx, store, h.Limit)
}

func printRecentRuns(ctx context.Context, store *history.Store, limit int) error {
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-8s  %5s  %5s  %7s\n", "RUN", "STARTED", "STATUS", "STALE", "TOTAL", "REBUILT")
	for _, run := range runs {
		fmt.Printf("%-36s  %-20s  %-8s  %5d  %5d  %7d\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Stale,
			run.Discovered,
			run.Rebuilt)
	}
	return nil
}

func printRunDetail(ctx context.Context, store *history.Store, runID string) error {
	rebuilds, err := store.Rebuilds(ctx, runID)
	if err != nil {
		return err
	}
	if len(rebuilds) == 0 {
		fmt.Printf("No rebuilds recorded for run %s\n", runID)
		return nil
	}

	fmt.Printf("%-44s  %-8s  %10s  %s\n", "NOTEBOOK", "STATUS", "DURATION", "ERROR")
	for _, rb := range rebuilds {
		errText := rb.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Printf("%-44s  %-8s  %10s  %s\n", rb.Notebook, rb.Status, rb.Duration.Round(time.Millisecond), errText)
	}
	return nil
}
