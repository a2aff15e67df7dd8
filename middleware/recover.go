package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/logger"
)

// RelayPanicRecover converts a panic anywhere downstream into a structured
// log entry plus an OpenAI-shaped 500 response, instead of killing the
// connection with no body.
func RelayPanicRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				body, _ := common.GetRequestBody(c)
				logger.Logger.Error("panic detected",
					zap.Any("panic", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("request_body", body))
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"message": fmt.Sprintf("internal error: %v", err),
						"type":    "gateway_panic",
					},
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
