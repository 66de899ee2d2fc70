package middleware

import (
	"context"
	"net/http"
	"strings"

	"backoffice/internal/util"

	"github.com/rs/zerolog"
)

type contextKey string

const claimsContextKey = contextKey("claims")

// ClaimsFromContext returns the verified admin claims of the request, if any.
func ClaimsFromContext(ctx context.Context) (*util.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*util.Claims)
	return claims, ok
}

// WithClaims stores claims in the context.
func WithClaims(ctx context.Context, claims *util.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// AuthMiddleware verifies the bearer token and then asks isAdmin whether the
// token's e-mail may use the back office.
func AuthMiddleware(jwtKey string, isAdmin func(email string) bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn().Str("path", r.URL.Path).Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := util.ValidateJWT(parts[1], jwtKey)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			if isAdmin != nil && !isAdmin(claims.Email) {
				logger.Warn().Str("email", claims.Email).Msg("Token email is not an administrator")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
