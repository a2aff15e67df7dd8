package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/analytics"
	"github.com/opengw/llmgateway/internal/batcher"
)

// Egress finalizes response timing, assembles the AnalyticsRecord, and
// queues it to the analytics batcher. It must run after c.Next() returns
// so response headers/status are visible; register it before any stage
// whose post-processing it depends on.
func Egress(queue *batcher.Batcher[analytics.Record]) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		rec := recordFrom(c)
		if rec == nil {
			return
		}

		now := time.Now()
		startAny, _ := c.Get(ctxkey.TraceStart)
		start, _ := startAny.(time.Time)
		totalMS := int64(0)
		if !start.IsZero() {
			totalMS = now.Sub(start).Milliseconds()
		}

		modelMS := int64(0)
		if v := c.Writer.Header().Get(ctxkey.HeaderModelLatencyMS); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				modelMS = parsed
			}
		}

		rec.Mu.Lock()
		rec.ResponseTS = now
		rec.StatusCode = c.Writer.Status()
		rec.ResponseBytes = int64(c.Writer.Size())
		rec.ClientIP = c.GetString(ctxkey.ClientIP)
		rec.Country = c.GetString(ctxkey.Country)
		rec.UserAgent = c.Request.UserAgent()
		rec.ModelName = c.GetString(ctxkey.RequestModel)
		rec.InferenceID = c.Writer.Header().Get(ctxkey.HeaderInferenceID)
		rec.Mu.Unlock()

		rec.SetTiming(totalMS, modelMS)
		queue.Enqueue(rec.Snapshot())
	}
}
