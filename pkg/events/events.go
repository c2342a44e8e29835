// Package events publishes collection sync notifications to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/reelsync/pkg/lifecycle"
)

const (
	CollectionCreated = "collection.created"
	CollectionUpdated = "collection.updated"
)

// Event is the payload published after a collection is reconciled.
type Event struct {
	Type          string    `json:"type"`
	ShowCode      string    `json:"showCode"`
	EpisodeNumber string    `json:"episodeNumber"`
	DatabaseID    string    `json:"databaseId"`
	RemoteID      string    `json:"remoteId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher emits events. Delivery is best effort: failures are logged and
// never propagated to the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Broker publishes events over a NATS connection.
type Broker struct {
	cfg    *Config
	conn   atomic.Pointer[nats.Conn]
	logger *slog.Logger
}

// New creates a Broker. The connection is established by Start.
func New(cfg *Config, logger *slog.Logger) *Broker {
	return &Broker{
		cfg:    cfg,
		logger: logger.With("system", "events"),
	}
}

// Start registers the broker connection and drain hooks.
func (b *Broker) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() error {
		conn, err := nats.Connect(
			b.cfg.URL,
			nats.Name(b.cfg.Name),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				b.logger.Warn("broker disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				b.logger.Info("broker reconnected", "url", c.ConnectedUrl())
			}),
		)
		if err != nil {
			b.logger.Error("broker connect failed", "error", err)
			return fmt.Errorf("connect broker: %w", err)
		}

		b.conn.Store(conn)
		b.logger.Info("broker connection established", "url", b.cfg.URL)
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		conn := b.conn.Load()
		if conn == nil {
			return
		}
		if err := conn.Drain(); err != nil {
			b.logger.Error("broker drain failed", "error", err)
			return
		}
		b.logger.Info("broker connection closed")
	})

	return nil
}

// Subject returns the full subject an event type is published on.
func (b *Broker) Subject(eventType string) string {
	return b.cfg.SubjectPrefix + "." + eventType
}

func (b *Broker) Publish(ctx context.Context, e Event) {
	conn := b.conn.Load()
	if conn == nil {
		b.logger.Warn("broker not connected, dropping event", "type", e.Type)
		return
	}
	if ctx.Err() != nil {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		b.logger.Error("event encode failed", "type", e.Type, "error", err)
		return
	}

	if err := conn.Publish(b.Subject(e.Type), data); err != nil {
		b.logger.Error("event publish failed", "type", e.Type, "error", err)
		return
	}

	b.logger.Debug("event published", "type", e.Type, "remote_id", e.RemoteID)
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
