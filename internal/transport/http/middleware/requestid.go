package middleware

import (
	"github.com/gin-gonic/gin"

	"agora/pkg/utils"
)

const KeyRequestID = "X-Request-ID"

// RequestID honors an inbound id from a trusted proxy, otherwise mints one in
// the same 32-hex format the entity ids use, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > 64 {
			rid = utils.NewID()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
