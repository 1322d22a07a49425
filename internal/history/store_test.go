package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythonot/nbrun/internal/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func sampleReport(id string, started time.Time) *runner.Report {
	return &runner.Report{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Discovered: 3,
		Stale:      2,
		Rebuilds: []runner.Rebuild{
			{Notebook: "plot_a.ipynb", Digest: "aaa", Duration: 40 * time.Second, Status: runner.StatusSuccess},
			{Notebook: "plot_b.ipynb", Duration: 50 * time.Second, Status: runner.StatusFailed, Error: "kernel died"},
		},
	}
}

func TestRecordAndQueryRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)

	report := sampleReport("run-1", started)
	require.NoError(t, s.RecordRun(ctx, report, errors.New("kernel died")))

	runs, err := s.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, started.UnixMilli(), r.StartedAt.UnixMilli())
	assert.Equal(t, 3, r.Discovered)
	assert.Equal(t, 2, r.Stale)
	assert.Equal(t, 1, r.Rebuilt)
	assert.Equal(t, "failed", r.Status)
	assert.Equal(t, "kernel died", r.Error)
}

func TestRebuildDetail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, sampleReport("run-1", time.Now()), nil))

	rebuilds, err := s.Rebuilds(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rebuilds, 2)

	assert.Equal(t, "plot_a.ipynb", rebuilds[0].Notebook)
	assert.Equal(t, "aaa", rebuilds[0].Digest)
	assert.Equal(t, 40*time.Second, rebuilds[0].Duration)
	assert.Equal(t, "success", rebuilds[0].Status)

	assert.Equal(t, "plot_b.ipynb", rebuilds[1].Notebook)
	assert.Equal(t, "failed", rebuilds[1].Status)
	assert.Equal(t, "kernel died", rebuilds[1].Error)
}

func TestRecentRunsOrdersNewestFirstAndHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	require.NoError(t, s.RecordRun(ctx, sampleReport("run-old", base), nil))
	require.NoError(t, s.RecordRun(ctx, sampleReport("run-mid", base.Add(10*time.Minute)), nil))
	require.NoError(t, s.RecordRun(ctx, sampleReport("run-new", base.Add(20*time.Minute)), nil))

	runs, err := s.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-mid", runs[1].ID)
}

func TestRebuildsForUnknownRunIsEmpty(t *testing.T) {
	s := openTestStore(t)
	rebuilds, err := s.Rebuilds(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, rebuilds)
}

func TestDuplicateRunIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	report := sampleReport("run-1", time.Now())

	require.NoError(t, s.RecordRun(ctx, report, nil))
	require.Error(t, s.RecordRun(ctx, report, nil))

	// The failed second insert must not leave orphaned rebuild rows.
	rebuilds, err := s.Rebuilds(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, rebuilds, 2)
}
