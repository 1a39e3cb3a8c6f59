package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller
	IdentityKey contextKey = "identity"
)

// TokenParser resolves a bearer token to the caller's identity.
// service.AuthService satisfies it.
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*model.Identity, error)
}

// AuthMiddleware rejects requests without a valid, unrevoked bearer token and
// stores the caller's identity in the request context.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			identity, err := parser.ParseToken(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, model.ErrTokenExpired):
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
				case errors.Is(err, model.ErrTokenRevoked):
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenRevoked, "Access token has been revoked")
				case errors.Is(err, model.ErrTokenInvalid):
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				default:
					httputil.WriteInternalError(w, "Failed to verify token", err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetIdentityFromContext extracts the caller set by AuthMiddleware.
func GetIdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*model.Identity)
	return identity, ok && identity != nil
}

// GetUsernameFromContext is a shorthand for the caller's username.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	identity, ok := GetIdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return identity.Username, true
}

// NoStore marks every response as uncacheable.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
