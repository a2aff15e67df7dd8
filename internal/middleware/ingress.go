package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/common/helper"
	"github.com/opengw/llmgateway/internal/analytics"
)

// analyticsRecordKey is the gin context key the in-flight *analytics.Record
// is stashed under; ctxkey.go's string constants cover cross-cutting
// lookups, this one stays local since only ingress/egress touch the
// pointer itself.
const analyticsRecordKey = "analytics_record"

// Ingress constructs the per-request AnalyticsRecord and records the
// start instant; it is the first stage of the pipeline.
func Ingress() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		record := &analytics.Record{
			ID:        helper.GenRequestID(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			RequestTS: start,
		}
		c.Set(analyticsRecordKey, record)
		c.Set(ctxkey.TraceStart, start)
		c.Next()
	}
}

// recordFrom fetches the in-flight AnalyticsRecord, or nil if Ingress
// never ran (e.g. a route registered outside the main chain).
func recordFrom(c *gin.Context) *analytics.Record {
	v, ok := c.Get(analyticsRecordKey)
	if !ok {
		return nil
	}
	r, _ := v.(*analytics.Record)
	return r
}

// RecordFrom exposes recordFrom to packages outside middleware (the
// dispatch stage marks the in-flight record Blocked on a guardrail hit,
// the same way BlockingRules does for rule-based blocks).
func RecordFrom(c *gin.Context) *analytics.Record {
	return recordFrom(c)
}
