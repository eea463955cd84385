package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/auth"
)

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	tokens auth.TokenService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(tokens auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token from the Authorization header and
// adds its subject to the request context. Failures are answered with an
// UNAUTHORIZED envelope.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil {
			var claims *auth.Claims
			claims, err = m.tokens.ValidateToken(r.Context(), token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(shared.WithSubject(r.Context(), claims.Subject)))
				return
			}
		}

		message := "Invalid token"
		switch {
		case errors.Is(err, auth.ErrMissingToken):
			message = "Authorization header required"
		case errors.Is(err, auth.ErrExpiredToken):
			message = "Token expired"
		}
		_ = envelope.SendError(w, r, envelope.Unauthorized, err, message)
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
