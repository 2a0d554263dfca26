package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database, or exists but is not owned by the
// caller. The two cases are deliberately indistinguishable so that callers
// cannot probe for the existence of other users' itineraries.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, duplicate place ids, unknown place id).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when an operation requires a caller identity
// and none is present on the request.
// Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")
