package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bryanwahyu/lexiguard/internal/domain/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// BearerAuth verifies the Authorization header against the identity
// provider and stores the verified identity in the request context.
// Auth is checked before any validation or orchestration runs.
func BearerAuth(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteJSONError(w, http.StatusUnauthorized, CodeHTTPException, "missing Authorization header")
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			ident, err := verifier.Verify(r.Context(), token)
			if err != nil {
				WriteJSONError(w, http.StatusUnauthorized, CodeHTTPException, authMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the verified identity set by BearerAuth.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(identity.Identity)
	return ident, ok
}

// authMessage maps auth failures to stable messages; verification
// internals never reach the caller.
func authMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrMissingCredential):
		return "missing credential"
	case errors.Is(err, identity.ErrExpired):
		return "token expired"
	case errors.Is(err, identity.ErrMissingClaim):
		return "required identity claim missing"
	default:
		return "invalid or expired token"
	}
}
