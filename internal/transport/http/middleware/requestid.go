package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	resp "luxora/internal/transport/http/response"
)

const KeyRequestID = resp.KeyRequestID

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
