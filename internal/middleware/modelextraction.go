package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/auth"
)

var modelPathPattern = regexp.MustCompile(`^/v1/models/([^/]+)/`)

// modelRequestBody is the minimal JSON shape needed to peek the model
// field out of an otherwise provider-specific request body.
type modelRequestBody struct {
	Model string `json:"model"`
}

// ModelExtraction resolves the model name used to bucket the rate limiter,
// checked in priority order: an endpoint-id header, a prompt-id header,
// the model Auth already resolved, an X-Model-Name header, the path
// segment, then the body's model field. This is a rate-limit-bucketing
// key only — it is written to ctxkey.RateLimitModel, never to
// ctxkey.RequestModel, so an endpoint-id override can never change which
// model a request is actually routed and dispatched to.
func ModelExtraction() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.Request.Header.Get(auth.HeaderEndpointID); name != "" {
			store(c, name)
			c.Next()
			return
		}
		if name := c.Request.Header.Get("x-tensorzero-prompt-id"); name != "" {
			store(c, name)
			c.Next()
			return
		}
		if name := c.GetString(ctxkey.RequestModel); name != "" {
			store(c, name)
			c.Next()
			return
		}
		if name := c.Request.Header.Get("X-Model-Name"); name != "" {
			store(c, name)
			c.Next()
			return
		}
		if m := modelPathPattern.FindStringSubmatch(c.Request.URL.Path); len(m) == 2 {
			store(c, m[1])
			c.Next()
			return
		}

		var body modelRequestBody
		if err := common.UnmarshalBodyReusable(c, &body); err == nil && body.Model != "" {
			store(c, body.Model)
		}
		c.Next()
	}
}

func store(c *gin.Context, name string) {
	c.Set(ctxkey.RateLimitModel, name)
}
