package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
)

// UsageStatus is the cached per-user usage the usage-limit stage checks
// against, refreshed out of band (e.g. by a billing reconciliation job).
type UsageStatus struct {
	Exhausted bool
}

// UsageLimitCache resolves a user id to its cached UsageStatus.
type UsageLimitCache interface {
	Get(userID string) (UsageStatus, bool)
}

// UsageLimit denies a request whose user has exhausted its usage quota
// with a 402-equivalent response. A cache miss is treated as "not
// exhausted" — usage accounting lags request volume by design, so an
// unknown user is never penalized for it.
func UsageLimit(cache UsageLimitCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxkey.APIKeyOwner)
		status, found := cache.Get(userID)
		c.Set(ctxkey.UsageLimitDecision, status)

		if found && status.Exhausted {
			abortWithStatus(c, http.StatusPaymentRequired, "usage quota exhausted")
			return
		}
		c.Next()
	}
}
