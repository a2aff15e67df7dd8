// Package proxy implements the two proxy surfaces that share the
// gateway's middleware stack: the OTLP collector proxy and the use-case
// deployment proxy.
package proxy

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/logger"
)

// otlpStrippedHeaders are never forwarded to the collector.
var otlpStrippedHeaders = []string{"Host", "Connection", "Authorization"}

// OTLPProxy forwards POST /v1/{traces,metrics,logs} bodies verbatim to
// collectorURL, stripping hop-unsafe/authorization headers, with a hard
// 10s timeout.
func OTLPProxy(collectorURL string) gin.HandlerFunc {
	client := &http.Client{Timeout: 10 * time.Second}

	return func(c *gin.Context) {
		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, collectorURL+c.Request.URL.Path, c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "failed to build collector request", "type": "gateway_error"}})
			return
		}
		req.Header = c.Request.Header.Clone()
		for _, h := range otlpStrippedHeaders {
			req.Header.Del(h)
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Logger.Warn("otlp proxy upstream call failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "collector unreachable", "type": "gateway_error"}})
			return
		}
		defer resp.Body.Close()

		for k, vs := range resp.Header {
			for _, v := range vs {
				c.Writer.Header().Add(k, v)
			}
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			logger.Logger.Warn("otlp proxy response copy failed")
		}
	}
}
