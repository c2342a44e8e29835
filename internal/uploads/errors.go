package uploads

import (
	"errors"
	"net/http"
	"strings"
)

// Domain errors for upload operations.
var (
	ErrNotFound        = errors.New("upload not found")
	ErrDuplicate       = errors.New("upload already exists")
	ErrInvalidFile     = errors.New("invalid file")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrLinkNotFound    = errors.New("collection link not found")
	ErrVersionConflict = errors.New("upload modified concurrently")
)

// MapHTTPStatus maps upload domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// InvalidError reports row-level validation failures for an uploaded file.
// It matches ErrInvalidFile with errors.Is.
type InvalidError struct {
	Properties FileProperties
}

func (e *InvalidError) Error() string {
	return ErrInvalidFile.Error() + ": " + strings.Join(e.Properties.Properties.Errors, "; ")
}

func (e *InvalidError) Unwrap() error {
	return ErrInvalidFile
}
