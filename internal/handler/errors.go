package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/muzer/internal/middleware"
	"github.com/templui/muzer/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidURL, http.StatusBadRequest},
	{service.ErrInvalidEmail, http.StatusBadRequest},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrStreamNotFound, http.StatusNotFound},
	{service.ErrVoteNotFound, http.StatusNotFound},
	{service.ErrEmptyQueue, http.StatusNotFound},
	{service.ErrMetadataUnavailable, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrAlreadyVoted, http.StatusConflict},
	{service.ErrQueueContended, http.StatusConflict},
}

// serviceError maps a service error to its HTTP status and writes it.
// Anything unmapped is logged and answered with a generic 500 carrying
// fallback, so storage and upstream details never reach the client.
func serviceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			middleware.ErrorResponse(w, e.status, e.err.Error())
			return
		}
	}

	slog.Error(fallback, "error", err, "method", r.Method, "path", r.URL.Path)
	middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
}
