package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adsops/adsops/application/port/outbound"
	domainerr "github.com/adsops/adsops/domain/error"
	"github.com/adsops/adsops/infrastructure/http/response"
	"github.com/adsops/adsops/infrastructure/service/logger"
)

type contextKey string

const authActorKey contextKey = "auth_actor"

type AuthMiddleware struct {
	tokenService outbound.TokenService
}

func NewAuthMiddleware(tokenService outbound.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's claims in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := logger.CorrelationIDFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.AppError(w, domainerr.NewUnauthorizedError("Authorization header required"), traceID)
			return
		}

		// Extract Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.AppError(w, domainerr.NewUnauthorizedError("Invalid authorization header format"), traceID)
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(parts[1])
		if err != nil {
			response.AppError(w, domainerr.NewUnauthorizedError("Invalid or expired token"), traceID)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims attaches authenticated claims to ctx
func WithClaims(ctx context.Context, claims *outbound.TokenClaims) context.Context {
	return context.WithValue(ctx, authActorKey, claims)
}

// GetClaims retrieves the authenticated claims from context
func GetClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authActorKey).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}

// ActorFromContext returns the authenticated actor or ""
func ActorFromContext(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Actor
	}
	return ""
}
