package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/response"
)

// Principal is the authenticated caller.
type Principal interface {
	IsAdministrator() bool
}

// Authenticator resolves a raw bearer token to the caller. Errors should be
// *apperror.Error so they map onto 401 responses.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromCtx returns the caller placed by Auth.
func PrincipalFromCtx(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p != nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth rejects requests without a valid bearer token and stores the resolved
// principal in the context.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				response.Fail(w, r, apperror.New(apperror.Unauthorized, "Not authenticated"))
				return
			}

			p, err := a.Authenticate(r.Context(), token)
			if err != nil {
				response.Fail(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromCtx(r.Context())
		if !ok {
			response.Fail(w, r, apperror.New(apperror.Unauthorized, "Not authenticated"))
			return
		}
		if !p.IsAdministrator() {
			response.Fail(w, r, apperror.New(apperror.Forbidden, "Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
