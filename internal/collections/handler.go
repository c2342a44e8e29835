package collections

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/internal/uploads"
	"github.com/JaimeStill/reelsync/pkg/handlers"
	"github.com/JaimeStill/reelsync/pkg/routes"
)

const genericMessage = "An unexpected error occurred"

// Handler provides HTTP endpoints for collection sync.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for the given system.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "collections"),
	}
}

// Routes returns the route group definition for collection endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/create/{showCode}/{episodeNumber}", Handler: h.Create},
			{Method: "PUT", Pattern: "/update/{showCode}/{episodeNumber}", Handler: h.Update},
			{Method: "GET", Pattern: "/exists/{showCode}/{episodeNumber}", Handler: h.Exists},
			{Method: "GET", Pattern: "/{showCode}/{episodeNumber}", Handler: h.Get},
		},
	}
}

// Create builds the collection hierarchy for an episode of the upload named
// by databaseId.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uploadID, err := decodeUploadID(r)
	if err != nil {
		h.fail(w, "Collection creation failed", err)
		return
	}

	result, err := h.sys.Create(r.Context(), uploadID, r.PathValue("showCode"), r.PathValue("episodeNumber"))
	if err != nil {
		h.fail(w, "Collection creation failed", err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Update refreshes the description of an existing episode collection.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uploadID, err := decodeUploadID(r)
	if err != nil {
		h.fail(w, "Collection update failed", err)
		return
	}

	result, err := h.sys.Update(r.Context(), uploadID, r.PathValue("showCode"), r.PathValue("episodeNumber"))
	if err != nil {
		h.fail(w, "Collection update failed", err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Get returns the registry collection of an episode. The route shares the
// API mux with GET /uploads/{id}, which takes precedence, so a show code of
// "uploads" is only reachable through the exists endpoint.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	col, err := h.sys.Get(r.Context(), r.PathValue("showCode"), r.PathValue("episodeNumber"))
	if err != nil {
		h.fail(w, "Failed to fetch collection", err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, col)
}

// Exists reports whether the episode collection exists.
func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.sys.Exists(r.Context(), r.PathValue("showCode"), r.PathValue("episodeNumber"))
	if err != nil {
		h.fail(w, "Failed to fetch collection", err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ExistsResponse{Exists: exists})
}

func (h *Handler) fail(w http.ResponseWriter, label string, err error) {
	status := MapHTTPStatus(err)

	message := err.Error()
	var ext *ExternalError
	if status == http.StatusInternalServerError && !errors.As(err, &ext) {
		message = genericMessage
	}

	handlers.RespondErrorMessage(w, h.logger, status, label, message, err)
}

func decodeUploadID(r *http.Request) (uuid.UUID, error) {
	var req SyncRequest
	if r.Body == nil || json.NewDecoder(r.Body).Decode(&req) != nil {
		return uuid.Nil, ErrMissingDatabaseID
	}

	raw := strings.TrimSpace(req.DatabaseID)
	if raw == "" {
		return uuid.Nil, ErrMissingDatabaseID
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uploads.ErrNotFound
	}
	return id, nil
}
