package middleware

import (
	"context"
	"net/http"

	"github.com/diagnosis/turneja/internal/auth"
	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/http/response"
	jwtauth "github.com/diagnosis/turneja/pkg/auth"
	"github.com/diagnosis/turneja/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

type RoleChecker interface {
	HasRole(ctx context.Context, email string, role domain.Role) (bool, error)
}

// Gate composes the authentication and role checks. RequireRole must be
// mounted after RequireAuthenticated.
type Gate struct {
	tokens *auth.TokenService
	roles  RoleChecker
}

func NewGate(tokens *auth.TokenService, roles RoleChecker) *Gate {
	return &Gate{tokens: tokens, roles: roles}
}

func (g *Gate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.tokens.Verify(g.tokens.FromRequest(r))
		if err != nil {
			logger.DebugContext(r.Context(), "Token rejected", "reason", err)
			response.Unauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), CtxClaims, claims)
		ctx = context.WithValue(ctx, logger.UserEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits callers whose stored role equals role. Without verified
// claims in the context it rejects before touching the store.
func (g *Gate) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := Claims(r)
			if claims == nil {
				response.Unauthorized(w)
				return
			}
			ok, err := g.roles.HasRole(r.Context(), claims.Email, role)
			if err != nil {
				logger.ErrorContext(r.Context(), "Role lookup failed", "error", err, "role", role)
				response.InternalError(w)
				return
			}
			if !ok {
				logger.InfoContext(r.Context(), "Role check denied", "role", role)
				response.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func Claims(r *http.Request) *jwtauth.Claims {
	claims, _ := r.Context().Value(CtxClaims).(*jwtauth.Claims)
	return claims
}
