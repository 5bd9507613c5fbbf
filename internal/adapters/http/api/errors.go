package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/matching"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/scheduler"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrInvalidID  = errors.New("invalid id")
)

// classify maps an upstream error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, model.ErrInvalidProject),
		errors.Is(err, model.ErrInvalidVendor),
		errors.Is(err, model.ErrInvalidClient),
		errors.Is(err, matching.ErrInvalidProject):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, matching.ErrProjectNotFound),
		errors.Is(err, scheduler.ErrUnknownJob):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, scheduler.ErrJobRunning):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
