// Package api assembles the API module from the uploads and collections
// domains and registers their routes.
package api

import (
	"net/http"

	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/internal/infrastructure"
	"github.com/JaimeStill/reelsync/pkg/middleware"
	"github.com/JaimeStill/reelsync/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
