package api

import (
	"context"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/api/respond"
	"github.com/taskdeck/taskdeck/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom returns the authenticated identity stored by AuthMiddleware.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok
}

// AuthMiddleware verifies the bearer token and stores the resulting identity
// in the request context. Requests without a valid token get 401.
func AuthMiddleware(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearerToken(r)
			if err != nil {
				respond.WriteUnauthorized(w, "Missing or malformed Authorization header")
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				respond.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
