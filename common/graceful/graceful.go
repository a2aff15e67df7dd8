// Package graceful tracks in-flight requests and background critical tasks
// (such as the config-reload listener) so cmd/gateway/main.go can
// wait for both to settle before the process exits, instead of cutting a
// request off mid-flight when SIGTERM arrives.
package graceful

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/logger"
)

var (
	draining atomic.Bool

	requests sync.WaitGroup
	critical sync.WaitGroup
)

// BeginRequest marks one request as in flight; the returned func must run
// when the request completes (typically via defer in RequestTracker).
func BeginRequest() func() {
	requests.Add(1)
	return requests.Done
}

// RequestTracker is the gin middleware form of BeginRequest, registered
// early in the pipeline so long-running streaming handlers are still
// counted against the drain.
func RequestTracker() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := BeginRequest()
		defer done()
		c.Next()
	}
}

// GoCritical runs fn in a tracked goroutine; Drain waits for it. Use for
// post-response work that must finish even after the HTTP response has
// been written — flushing the analytics/inference batchers, for instance.
func GoCritical(ctx context.Context, name string, fn func(context.Context)) {
	critical.Add(1)
	go func() {
		defer critical.Done()
		start := time.Now()
		logger.Logger.Debug("critical task start", zap.String("name", name))
		fn(ctx)
		logger.Logger.Debug("critical task done", zap.String("name", name), zap.Duration("elapsed", time.Since(start)))
	}()
}

// Drain blocks until every in-flight request and tracked critical task has
// finished, or ctx's deadline expires first.
func Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		requests.Wait()
		critical.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Logger.Info("graceful drain complete")
		return nil
	case <-ctx.Done():
		logger.Logger.Error("graceful drain timed out with work still outstanding")
		return ctx.Err()
	}
}

// SetDraining flips the draining flag, read by health checks that should
// stop reporting ready once shutdown has started.
func SetDraining() { draining.Store(true) }

// IsDraining reports whether the server is currently draining.
func IsDraining() bool { return draining.Load() }
