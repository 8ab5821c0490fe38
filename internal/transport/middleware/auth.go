package middleware

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/frahmantamala/expense-portal/internal/auth"
	"github.com/frahmantamala/expense-portal/internal/profile"
)

// TokenValidator is the slice of the auth service the middleware needs.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// Authenticate validates the bearer token and resolves the caller's role
// set from the profile store. A missing profile degrades to the default
// role rather than rejecting the request; an invalid token is a 401.
func Authenticate(validator TokenValidator, profiles profile.Repository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"message":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.Warn("token validation failed", "error", err)
				http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			roles := profile.DefaultRoles()
			if p, err := profiles.GetByID(r.Context(), claims.UserID); err == nil && p != nil {
				roles = p.Roles
			}

			user := &auth.CurrentUser{
				ID:    claims.UserID,
				Email: claims.Email,
				Roles: roles,
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects requests whose caller lacks role. Admin always
// passes.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if !user.HasRole(role) {
				http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
