package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilPublisherDropsEverything(t *testing.T) {
	var p *Publisher
	require.NoError(t, p.PublishRebuild(&RebuildEvent{Notebook: "plot_ot.ipynb"}))
	p.Close()
}

func TestNewPublisherUnreachableServer(t *testing.T) {
	_, err := NewPublisher("nats://127.0.0.1:1", "nbrun.rebuilds")
	require.Error(t, err)
}

func TestRebuildEventWireFormat(t *testing.T) {
	ev := RebuildEvent{
		RunID:      "run-1",
		Notebook:   "plot_ot.ipynb",
		Digest:     "abc123",
		Status:     "success",
		DurationMS: 4200,
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, "plot_ot.ipynb", decoded["notebook"])
	assert.Equal(t, float64(4200), decoded["duration_ms"])
}
