package uploads

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/reelsync/pkg/formatting"
	"github.com/JaimeStill/reelsync/pkg/handlers"
	"github.com/JaimeStill/reelsync/pkg/pagination"
	"github.com/JaimeStill/reelsync/pkg/routes"
)

// Handler provides HTTP endpoints for upload operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "uploads"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for upload endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "POST", Pattern: "/validate", Handler: h.Validate},
			{Method: "GET", Pattern: "/uploads", Handler: h.List},
			{Method: "GET", Pattern: "/uploads/{id}", Handler: h.Find},
		},
	}
}

// Upload validates and stores a multipart file from the "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.readFile(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	u, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, Created{
		ID:         u.ID,
		Filename:   u.Filename,
		UploadDate: u.UploadDate,
	})
}

// Validate inspects a multipart file without persisting it. Row-level
// problems produce a 200 with isValid false; unreadable files produce a 400.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	cmd, err := h.readFile(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	_, props, err := Inspect(cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ValidationResult{
		IsValid:     props.IsValid,
		Properties:  props,
		ValidatedAt: time.Now().UTC(),
	})
}

// List returns a page of upload summaries, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single upload with its collection links.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}

	u, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, u)
}

func (h *Handler) readFile(w http.ResponseWriter, r *http.Request) (CreateCommand, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CreateCommand{}, fmt.Errorf("%w: limit is %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize))
		}
		return CreateCommand{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return CreateCommand{}, fmt.Errorf("%w: no file uploaded in field \"file\"", ErrInvalidFile)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return CreateCommand{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	return CreateCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
