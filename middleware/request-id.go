package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/helper"
)

// RequestId assigns a time-ordered id to every request, exposing it via both
// the gin context (for downstream stages) and a response header (for client
// correlation).
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := helper.GenRequestID()
		c.Set(helper.RequestIdKey, id)
		c.Header(helper.RequestIdKey, id)
		c.Next()
	}
}
