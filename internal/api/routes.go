package api

import (
	"net/http"

	"github.com/JaimeStill/reelsync/internal/config"
	"github.com/JaimeStill/reelsync/pkg/routes"
)

// registerRoutes mounts the upload and collection route groups. GET
// /uploads/{id} is more specific than the two-segment collection lookup, so
// the mux routes upload ids to the uploads handler.
func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config) {
	routes.Register(
		mux,
		domain.Uploads.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Collections.Handler().Routes(),
	)
}
