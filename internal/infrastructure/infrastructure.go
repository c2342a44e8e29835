// Package infrastructure assembles the shared systems reelsync domains depend
// on: logging, lifecycle coordination, the upload database, blob storage, the
// asset registry client, per-key locks, and the event broker.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/pkg/database"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/keylock"
	"github.com/JaimeStill/reelsync/pkg/lifecycle"
	"github.com/JaimeStill/reelsync/pkg/registry"
	"github.com/JaimeStill/reelsync/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Registry  registry.API
	Locks     keylock.Locker
	Events    *events.Broker
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	client, err := registry.NewClient(&cfg.Registry, logger)
	if err != nil {
		return nil, fmt.Errorf("registry init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Registry:  registry.NewBreaker(client, &cfg.Registry, logger),
		Locks:     newLocker(&cfg.Locks, logger),
		Events:    events.New(&cfg.Broker, logger),
	}, nil
}

func newLocker(cfg *keylock.Config, logger *slog.Logger) keylock.Locker {
	if cfg.Backend == keylock.BackendRedis {
		return keylock.NewRedis(cfg, logger)
	}
	return keylock.NewLocal(cfg.WaitDuration())
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if r, ok := i.Locks.(*keylock.Redis); ok {
		if err := r.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("locks start failed: %w", err)
		}
	}
	if err := i.Events.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("events start failed: %w", err)
	}
	return nil
}
