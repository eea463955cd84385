package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/auth"
	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/pagination"
	"github.com/phrazzld/ensemble-api/internal/store"
	"github.com/phrazzld/ensemble-api/internal/validation"
)

// MapErrorToStatus maps internal errors onto the envelope status vocabulary.
// Anything it does not recognize is a server error.
func MapErrorToStatus(err error) envelope.Status {
	var maxBytes *http.MaxBytesError

	switch {
	case err == nil:
		return envelope.OK

	// A failed datastore read is a server error whatever its cause.
	case pagination.IsQueryError(err):
		return envelope.InternalServerError

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return envelope.Unauthorized

	// Client input errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrMalformedBody),
		errors.Is(err, store.ErrInvalidEntity):
		return envelope.UnprocessableEntity

	case errors.Is(err, domain.ErrInvalidID),
		errors.As(err, &maxBytes):
		return envelope.BadRequest

	case errors.Is(err, store.ErrNotFound):
		return envelope.NotFound

	case errors.Is(err, store.ErrDuplicate):
		return envelope.Conflict

	default:
		return envelope.InternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. It never
// includes wrapped error text, which may name tables or columns.
func GetSafeErrorMessage(err error) string {
	var maxBytes *http.MaxBytesError

	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, shared.ErrMalformedBody):
		return "Request body must be a JSON object"
	case errors.As(err, &maxBytes):
		return "Request body too large"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, store.ErrNotFound):
		return "Record not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Record already exists"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	default:
		return "An unexpected error occurred"
	}
}

// respondError sends err with the status MapErrorToStatus picks. Validation
// failures carry their details; server errors carry the redacted diagnostic.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatus(err)

	var data any
	var ve *validation.ValidationError
	switch {
	case errors.As(err, &ve):
		data = ve.Details
	case status == envelope.InternalServerError:
		data = nil
	default:
		data = GetSafeErrorMessage(err)
	}

	_ = envelope.SendError(w, r, status, err, data)
}
