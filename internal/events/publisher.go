// Package events publishes rebuild notifications to NATS so downstream
// documentation pipelines can react without polling the cache file.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pythonot/nbrun/internal/logfields"
)

// RebuildEvent is the payload published for every rebuild attempt.
type RebuildEvent struct {
	RunID      string    `json:"run_id"`
	Notebook   string    `json:"notebook"`
	Digest     string    `json:"digest,omitempty"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends rebuild events to a NATS subject. A nil Publisher is valid
// and drops everything, so callers can wire it unconditionally.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("nbrun"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	slog.Info("Connected to NATS for rebuild events",
		slog.String("url", url),
		slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishRebuild publishes one event. Delivery is fire-and-forget: a rebuild
// never fails because a consumer is down.
func (p *Publisher) PublishRebuild(event *RebuildEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal rebuild event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish rebuild event: %w", err)
	}

	slog.Debug("Published rebuild event",
		logfields.Notebook(event.Notebook),
		logfields.RunID(event.RunID))
	return nil
}

// Close drains the connection so queued events flush before shutdown.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
