package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/repositories"
)

// Envelope is the success shape crossing the HTTP boundary.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorEnvelope is the failure shape: data is fixed to null and errors is
// always a sequence, empty when there is no per-field detail.
type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
}

// apiError carries an HTTP classification alongside a user-facing message.
type apiError struct {
	status  int
	message string
	errs    []string
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, message: message}
}

func unauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func forbidden(message string) error {
	return &apiError{status: http.StatusForbidden, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func conflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

// handlerFunc is a handler that reports failure instead of writing it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle is the single error-translation boundary: any error returned by a
// handler short-circuits into the envelope's error shape here, so no
// handler writes a partial response before failing.
func handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			respondError(r.Context(), w, err)
		}
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"
	var errs []string

	var ae *apiError
	switch {
	case errors.As(err, &ae):
		status = ae.status
		message = ae.message
		errs = ae.errs
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
		message = "Resource not found"
	case errors.Is(err, repositories.ErrConflict):
		status = http.StatusConflict
		message = "Resource already exists"
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "Invalid or expired token"
	}

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	if errs == nil {
		errs = []string{}
	}

	writeJSON(ctx, w, status, ErrorEnvelope{
		StatusCode: status,
		Data:       nil,
		Errors:     errs,
		Message:    message,
		Success:    false,
	})
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// decodeJSON parses a request body, classifying malformed input as 400.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}

// parseID validates a request-supplied identifier before it reaches the
// store, returning its canonical form.
func parseID(raw, label string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", badRequest("Invalid " + label)
	}
	return id.String(), nil
}
