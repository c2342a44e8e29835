package api

import (
	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/internal/infrastructure"
	"github.com/JaimeStill/reelsync/pkg/events"
	"github.com/JaimeStill/reelsync/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Publisher        events.Publisher
	Pagination       pagination.Config
	RootCollectionID string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	var publisher events.Publisher = events.Discard{}
	if infra.Events != nil {
		publisher = infra.Events
	}

	return &Runtime{
		Infrastructure:   &scoped,
		Publisher:        publisher,
		Pagination:       cfg.API.Pagination,
		RootCollectionID: cfg.Registry.RootCollectionID,
	}
}
