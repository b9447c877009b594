package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate resolves the caller from a bearer token when one is sent.
// Requests without an Authorization header continue as anonymous; a header
// that does not verify is rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		actor := actorctx.Actor{
			UserID:        claims.UserID,
			Email:         claims.Email,
			Authenticated: true,
			Roles:         claims.Roles,
		}

		c.Set(CtxUserID, actor.UserID)
		c.Set(CtxRoles, actor.Roles)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// RequireAuth rejects anonymous callers. It must run after Authenticate.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorctx.ActorFrom(c.Request.Context()).Authenticated {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
