// Package events publishes fleet domain events to a message broker.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/fleet-allocation/internal/observability"
)

const (
	TypeRiderLocation = "rider.location"
	TypeTaskCreated   = "task.created"
	TypeTaskStatus    = "task.status"
	TypeAllocation    = "allocation.made"
)

type Event struct {
	Type string      `json:"type"`
	Key  string      `json:"key"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Emit publishes e best-effort: failures are logged and counted, never
// returned, so a broker outage cannot fail a committed mutation.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		observability.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		if logger != nil {
			logger.Warn("event publish failed", "type", e.Type, "key", e.Key, "error", err)
		}
		return
	}
	observability.EventsPublishedTotal.WithLabelValues(e.Type, "ok").Inc()
}
