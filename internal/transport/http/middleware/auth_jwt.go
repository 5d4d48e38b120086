package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agora/internal/core/auth"
	resp "agora/internal/transport/http/response"
)

// AuthJWT rejects requests without a valid bearer token and stores the
// authenticated identity in the context for handlers.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("userName", claims.Name)
		c.Next()
	}
}
