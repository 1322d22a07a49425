package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherMatches(t *testing.T) {
	w := &Watcher{pattern: "*.ipynb"}
	assert.True(t, w.matches("/gallery/plot_ot.ipynb"))
	assert.True(t, w.matches("plot_ot.ipynb"))
	assert.False(t, w.matches("/gallery/plot_ot.py"))
	assert.False(t, w.matches("/gallery/cache_nbrun.tmp"))
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), "*.ipynb", time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.Error(t, w.Start(ctx, func() {}))
}

func TestWatcherFiresAfterNotebookWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, "*.ipynb", 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plot_ot.ipynb"), []byte("{}"), 0o644))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire after a notebook write")
	}
}

func TestServiceRunsInitialPassAndTriggeredPasses(t *testing.T) {
	passes := make(chan struct{}, 8)
	svc := NewService(nil, nil, 0, func(context.Context) {
		passes <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))

	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatal("initial pass never ran")
	}

	svc.Trigger()
	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered pass never ran")
	}

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, svc.Stop(stopCtx))
}

func TestTriggerCoalesces(t *testing.T) {
	svc := NewService(nil, nil, 0, func(context.Context) {})
	svc.Trigger()
	svc.Trigger()
	svc.Trigger()
	assert.Len(t, svc.trigger, 1)
}

func TestSchedulerLifecycle(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	id, err := s.ScheduleRescan(time.Hour, func() {})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start()
	require.NoError(t, s.Stop())
}
