package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/ratelimit"
)

// RateLimit enforces the per-(model, key) limiter and emits the
// X-RateLimit-* response headers on every response, plus Retry-After on
// deny. configFor resolves the per-model configuration (falling back to
// ratelimit.DefaultConfig when the model carries none). It buckets on
// ctxkey.RateLimitModel rather than ctxkey.RequestModel, since an
// endpoint-id header is allowed to reshape rate-limit bucketing without
// ever being allowed to change which model the request is routed to.
func RateLimit(limiter *ratelimit.Limiter, configFor func(model string) ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelName := c.GetString(ctxkey.RateLimitModel)
		if modelName == "" {
			modelName = c.GetString(ctxkey.RequestModel)
		}
		key := c.GetString(ctxkey.APIKeyId)
		cfg := configFor(modelName)

		decision := limiter.Check(c.Request.Context(), modelName, key, cfg)
		c.Set(ctxkey.RateLimitDecision, decision)

		c.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := decision.RetryAfter
			if retryAfter <= 0 {
				retryAfter = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			abortWithStatus(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
