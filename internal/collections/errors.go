package collections

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/reelsync/internal/metadata"
	"github.com/JaimeStill/reelsync/internal/uploads"
	"github.com/JaimeStill/reelsync/pkg/keylock"
)

// Domain errors for collection reconciliation.
var (
	ErrMissingDatabaseID    = errors.New("missing databaseId, provide it in the request body")
	ErrMissingEpisodeKey    = errors.New("missing TICODE or EPISODENO")
	ErrMissingSeasonName    = errors.New("missing SeasonName, upload title data first")
	ErrMissingSeriesOrBrand = errors.New("missing SeriesName or BrandTiCode, upload package data first")
	ErrAlreadyExists        = errors.New("collection already exists")
	ErrDoesNotExist         = errors.New("collection does not exist, use create first")
	ErrNotFound             = errors.New("collection not found")
	ErrBusy                 = errors.New("episode is being reconciled by another request")
)

// ExternalError is a failure of the registry, the upload store, or the lock
// backend. Its message is safe to return to clients.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func external(service string, err error) error {
	if err == nil {
		return nil
	}
	var ext *ExternalError
	if errors.As(err, &ext) {
		return err
	}
	return &ExternalError{Service: service, Err: err}
}

// MapHTTPStatus maps reconciliation errors to HTTP status codes. Conflicts
// report 400 so clients treat them like any other rejected precondition.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingDatabaseID),
		errors.Is(err, ErrMissingEpisodeKey),
		errors.Is(err, ErrMissingSeasonName),
		errors.Is(err, ErrMissingSeriesOrBrand),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrDoesNotExist),
		errors.Is(err, ErrBusy),
		errors.Is(err, keylock.ErrTimeout):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, uploads.ErrNotFound),
		errors.Is(err, uploads.ErrLinkNotFound),
		errors.Is(err, metadata.ErrEpisodeNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
