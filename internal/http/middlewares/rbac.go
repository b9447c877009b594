package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/actorctx"
)

// RequireRole lets the request through when the actor holds any of roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorctx.ActorFrom(c.Request.Context())
		if !actor.Authenticated {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		for _, r := range roles {
			if actor.HasRole(r) {
				c.Next()
				return
			}
		}

		abortJSON(c, http.StatusForbidden, "forbidden", "Insufficient role")
	}
}
