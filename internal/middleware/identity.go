// Package middleware provides HTTP middleware for the travel itinerary API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lamle62/webgis-du-lich/internal/domain"
)

// Headers set by the upstream authentication proxy. Authentication itself is
// out of scope for this service: by the time a request arrives here the proxy
// has already verified the session and asserts the user in these headers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

type identityKey struct{}

// Identity extracts the caller identity from the trusted proxy headers and
// stores it in the request context. Requests without a parseable user id pass
// through anonymously; route groups that require a caller use RequireIdentity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(HeaderUserID))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		role := r.Header.Get(HeaderUserRole)
		if role == "" {
			role = domain.RoleUser
		}
		ctx := context.WithValue(r.Context(), identityKey{}, domain.Identity{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the caller identity stored by Identity, reporting
// whether one is present.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// RequireIdentity rejects requests that carry no caller identity with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose caller does not have the admin role
// with 403. Wire it after RequireIdentity.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError emits the same error envelope the handlers use, without
// importing the handler package.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := "unauthenticated"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
