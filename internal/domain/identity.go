package domain

import "github.com/google/uuid"

// Role values forwarded by the authentication proxy.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated caller, as asserted by the upstream auth
// layer. This service never performs authentication itself — it only trusts
// the identity threaded through each request.
type Identity struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin reports whether the caller may use catalog curation endpoints.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}
