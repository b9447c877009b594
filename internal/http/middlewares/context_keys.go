package middlewares

import "github.com/gin-gonic/gin"

// Keys stored on the gin context.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxRoles     = "auth.roles"
)

func abortJSON(c *gin.Context, status int, code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": reqID,
		},
	})
}
