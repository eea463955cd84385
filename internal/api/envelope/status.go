package envelope

import "net/http"

// Status is one entry of the closed status vocabulary. Its fields are
// unexported so handlers can only use the values declared here.
type Status struct {
	code int
	name string
}

// Code returns the HTTP status code.
func (s Status) Code() int { return s.code }

// Name returns the symbolic name, e.g. "UNPROCESSABLE_ENTITY".
func (s Status) Name() string { return s.name }

func (s Status) String() string { return s.name }

// orInternal maps the zero Status, which carries no code, to
// InternalServerError.
func (s Status) orInternal() Status {
	if s.code == 0 {
		return InternalServerError
	}
	return s
}

// IsError reports whether the status is a 4xx or 5xx code.
func (s Status) IsError() bool { return s.code >= http.StatusBadRequest }

// The status vocabulary shared by every handler.
var (
	OK                  = Status{http.StatusOK, "OK"}
	Created             = Status{http.StatusCreated, "CREATED"}
	BadRequest          = Status{http.StatusBadRequest, "BAD_REQUEST"}
	Unauthorized        = Status{http.StatusUnauthorized, "UNAUTHORIZED"}
	Forbidden           = Status{http.StatusForbidden, "FORBIDDEN"}
	NotFound            = Status{http.StatusNotFound, "NOT_FOUND"}
	MethodNotAllowed    = Status{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"}
	Conflict            = Status{http.StatusConflict, "CONFLICT"}
	UnprocessableEntity = Status{http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"}
	InternalServerError = Status{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"}
)
