// Package runner decides which gallery notebooks are stale and drives their
// re-execution through an external converter.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pythonot/nbrun/internal/cache"
	"github.com/pythonot/nbrun/internal/config"
	"github.com/pythonot/nbrun/internal/gallery"
	"github.com/pythonot/nbrun/internal/hashutil"
	"github.com/pythonot/nbrun/internal/logfields"
	"github.com/pythonot/nbrun/internal/metrics"
	"github.com/pythonot/nbrun/internal/workspace"
)

// Tracker compares notebook content digests against the persisted cache and
// rebuilds what changed. It processes notebooks sequentially and aborts on
// the first failure; the cache is saved after every successful rebuild, so an
// abort never loses completed work.
type Tracker struct {
	cfg   *config.Config
	cache *cache.Cache
	ws    *workspace.Manager
	exec  Executor
	rec   metrics.Recorder
	force bool
}

// NewTracker wires a tracker. The workspace and executor may be nil for
// callers that only query staleness and never call Rebuild or RunAll.
func NewTracker(cfg *config.Config, c *cache.Cache, ws *workspace.Manager, exec Executor) *Tracker {
	return &Tracker{
		cfg:   cfg,
		cache: c,
		ws:    ws,
		exec:  exec,
		rec:   metrics.NoopRecorder{},
	}
}

// WithRecorder replaces the default no-op metrics recorder.
func (t *Tracker) WithRecorder(rec metrics.Recorder) *Tracker {
	if rec != nil {
		t.rec = rec
	}
	return t
}

// WithForce makes RunAll treat every notebook as stale.
func (t *Tracker) WithForce(force bool) *Tracker {
	t.force = force
	return t
}

// staleDigest hashes the notebook source and reports whether the digest
// differs from the cached one. A notebook without a cache entry is stale.
func (t *Tracker) staleDigest(nb gallery.Notebook) (string, bool, error) {
	digest, err := hashutil.HashFile(nb.Path)
	if err != nil {
		return "", false, fmt.Errorf("hash notebook %s: %w", nb.Name, err)
	}
	stored, ok := t.cache.Get(nb.Name)
	return digest, !ok || stored != digest, nil
}

// IsStale reports whether the notebook's current content differs from what
// the cache recorded. It never mutates anything.
func (t *Tracker) IsStale(nb gallery.Notebook) (bool, error) {
	_, stale, err := t.staleDigest(nb)
	return stale, err
}

// Rebuild copies the notebook into the working directory, executes it there,
// and on success records the digest of the pre-execution source in the cache.
// The returned digest is what was recorded. The caller decides when to
// persist the cache. There is no partial credit: a failed execution leaves
// the cache entry untouched.
func (t *Tracker) Rebuild(ctx context.Context, nb gallery.Notebook) (string, error) {
	digest, err := hashutil.HashFile(nb.Path)
	if err != nil {
		return "", fmt.Errorf("hash notebook %s: %w", nb.Name, err)
	}
	if err := t.rebuild(ctx, nb, digest); err != nil {
		return "", err
	}
	return digest, nil
}

func (t *Tracker) rebuild(ctx context.Context, nb gallery.Notebook, digest string) error {
	dst, err := t.ws.CopyIn(nb.Path)
	if err != nil {
		return err
	}
	if err := t.exec.Execute(ctx, dst); err != nil {
		return err
	}
	// The digest describes the source before execution. The working copy may
	// now contain outputs; the source is untouched.
	t.cache.Set(nb.Name, digest)
	return nil
}

// RunAll performs one full pass: discover notebooks, rebuild the stale ones
// in filename order, and persist the cache after each success. The first
// failure aborts the pass; the report covers everything attempted up to that
// point.
func (t *Tracker) RunAll(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	finish := func(outcome string) {
		report.FinishedAt = time.Now()
		t.rec.ObserveRunDuration(report.Duration())
		t.rec.IncRunOutcome(outcome)
		t.rec.SetStaleCount(report.Stale)
	}

	notebooks, err := gallery.Discover(t.cfg.SourceDir, t.cfg.Pattern)
	if err != nil {
		finish("failed")
		return report, err
	}
	report.Discovered = len(notebooks)
	t.rec.SetGallerySize(len(notebooks))

	slog.Info("Checking gallery for stale notebooks",
		logfields.RunID(report.RunID),
		logfields.Path(t.cfg.SourceDir),
		logfields.Count(len(notebooks)))

	for _, nb := range notebooks {
		if err := ctx.Err(); err != nil {
			finish("failed")
			return report, err
		}

		digest, stale, err := t.staleDigest(nb)
		if err != nil {
			finish("failed")
			return report, err
		}
		if !t.force && !stale {
			slog.Debug("Notebook up to date", logfields.Notebook(nb.Name))
			t.rec.IncRebuildResult(metrics.ResultSkipped)
			continue
		}

		report.Stale++
		slog.Info("Updating notebook", logfields.Notebook(nb.Name))

		start := time.Now()
		rebuildErr := t.rebuild(ctx, nb, digest)
		elapsed := time.Since(start)
		t.rec.ObserveRebuildDuration(nb.Name, elapsed, rebuildErr == nil)

		if rebuildErr != nil {
			t.rec.IncRebuildResult(metrics.ResultFailed)
			report.Rebuilds = append(report.Rebuilds, Rebuild{
				Notebook: nb.Name,
				Duration: elapsed,
				Status:   StatusFailed,
				Error:    rebuildErr.Error(),
			})
			finish("failed")
			return report, rebuildErr
		}

		// Persist immediately so an abort on a later notebook cannot lose
		// this one's result.
		if err := t.cache.Save(); err != nil {
			t.rec.IncRebuildResult(metrics.ResultFailed)
			report.Rebuilds = append(report.Rebuilds, Rebuild{
				Notebook: nb.Name,
				Duration: elapsed,
				Status:   StatusFailed,
				Error:    err.Error(),
			})
			finish("failed")
			return report, err
		}

		t.rec.IncRebuildResult(metrics.ResultSuccess)
		report.Rebuilds = append(report.Rebuilds, Rebuild{
			Notebook: nb.Name,
			Digest:   digest,
			Duration: elapsed,
			Status:   StatusSuccess,
		})
		slog.Info("Notebook updated",
			logfields.Notebook(nb.Name),
			logfields.Digest(digest),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
	}

	finish("success")
	slog.Info("Gallery pass complete",
		logfields.RunID(report.RunID),
		logfields.Count(report.Rebuilt()))
	return report, nil
}
