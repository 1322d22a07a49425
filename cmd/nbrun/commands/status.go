package commands

import (
	"fmt"
	"log/slog"

	"github.com/pythonot/nbrun/internal/cache"
	"github.com/pythonot/nbrun/internal/gallery"
	"github.com/pythonot/nbrun/internal/logfields"
	"github.com/pythonot/nbrun/internal/runner"
)

// StatusCmd implements the 'status' command. It only reads: useful as a CI
// gate, exiting non-zero when the gallery needs a rebuild pass.
type StatusCmd struct {
	Source string `help:"Override the gallery source directory"`
	Cache  string `help:"Override the digest cache location"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, s.Source, "", s.Cache); err != nil {
		return err
	}

	c, err := cache.Load(cfg.CachePath)
	if err != nil {
		return err
	}

	notebooks, err := gallery.Discover(cfg.SourceDir, cfg.Pattern)
	if err != nil {
		return err
	}

	// Staleness queries need neither a workspace nor an executor.
	tracker := runner.NewTracker(cfg, c, nil, nil)

	stale := 0
	for _, nb := range notebooks {
		isStale, err := tracker.IsStale(nb)
		if err != nil {
			return err
		}
		state := "fresh"
		if isStale {
			state = "stale"
			stale++
		}

		title, terr := gallery.Title(nb.Path)
		if terr != nil {
			slog.Debug("Could not extract notebook title",
				logfields.Notebook(nb.Name),
				logfields.Error(terr))
		}
		if title == "" {
			title = "-"
		}
		fmt.Printf("%-6s %-44s %s\n", state, nb.Name, title)
	}

	fmt.Printf("%d of %d notebook(s) need re-execution\n", stale, len(notebooks))
	if stale > 0 {
		return fmt.Errorf("%d notebook(s) stale", stale)
	}
	return nil
}
