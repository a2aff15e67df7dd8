package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/internal/auth"
	"github.com/opengw/llmgateway/internal/middleware"
	"github.com/opengw/llmgateway/internal/proxy"
	"github.com/opengw/llmgateway/internal/ratelimit"
)

// Config bundles everything RegisterRoutes needs beyond Dependencies:
// the shared stage backends that sit between auth and dispatch.
type Config struct {
	Deps *Dependencies

	AuthStore          *auth.Store
	RateLimiter        *ratelimit.Limiter
	RateLimitConfigFor func(model string) ratelimit.Config
	UsageCache         middleware.UsageLimitCache
	BlockRules         middleware.BlockRuleSource
	GeoLookup          func(ip string) string

	OTLPCollectorURL  string
	UseCaseResolver   proxy.RouteResolver
	UseCaseProjectOf  func(c *gin.Context) string
}

// RegisterRoutes wires the fixed middleware chain onto every core
// inference endpoint, plus the two proxy surfaces and the
// batch/file/telemetry endpoints that are exempt from model resolution.
func RegisterRoutes(engine *gin.Engine, cfg Config) {
	core := engine.Group("/v1")
	core.Use(
		middleware.Ingress(),
		middleware.ClientAttribution(cfg.GeoLookup),
		middleware.Egress(cfg.Deps.AnalyticsBus),
		middleware.Auth(cfg.AuthStore),
		middleware.BaggageCapture(),
		middleware.ModelExtraction(),
		middleware.RateLimit(cfg.RateLimiter, cfg.RateLimitConfigFor),
		middleware.UsageLimit(cfg.UsageCache),
		middleware.BlockingRules(cfg.BlockRules),
	)

	dispatch := Dispatch(cfg.Deps)
	for _, path := range []string{
		"/chat/completions",
		"/completions",
		"/embeddings",
		"/moderations",
		"/images/generations",
		"/audio/transcriptions",
		"/audio/translations",
		"/audio/speech",
		"/documents/ocr",
		"/responses",
		"/responses/:id",
		"/responses/:id/input_items",
		"/responses/:id/cancel",
	} {
		core.POST(path, dispatch)
	}
	core.GET("/responses/:id", dispatch)

	core.Any("/realtime/sessions", dispatch)
	core.Any("/realtime/transcription_sessions", dispatch)

	// Batch/file endpoints are exempt from the model-field requirement
	// and from persisted application state — the gateway does not store
	// user-visible application state.
	core.Any("/files", stubAccepted)
	core.Any("/files/*rest", stubAccepted)
	core.Any("/batches", stubAccepted)
	core.Any("/batches/*rest", stubAccepted)

	internal := engine.Group("/")
	internal.Use(middleware.Ingress(), middleware.ClientAttribution(cfg.GeoLookup), middleware.Egress(cfg.Deps.AnalyticsBus))
	internal.POST("/inference", middleware.Auth(cfg.AuthStore), middleware.BaggageCapture(), middleware.ModelExtraction(),
		middleware.RateLimit(cfg.RateLimiter, cfg.RateLimitConfigFor), middleware.UsageLimit(cfg.UsageCache),
		middleware.BlockingRules(cfg.BlockRules), dispatch)
	internal.POST("/feedback", middleware.AuthTelemetry(cfg.AuthStore), stubAccepted)

	if cfg.OTLPCollectorURL != "" {
		otlp := engine.Group("/v1")
		otlp.Use(middleware.AuthTelemetry(cfg.AuthStore))
		handler := proxy.OTLPProxy(cfg.OTLPCollectorURL)
		otlp.POST("/traces", handler)
		otlp.POST("/metrics", handler)
		otlp.POST("/logs", handler)
	}

	if cfg.UseCaseResolver != nil {
		engine.Any("/proxy/:deployment_id/api/*rest",
			middleware.Auth(cfg.AuthStore),
			proxy.UseCaseProxy(cfg.UseCaseResolver, cfg.UseCaseProjectOf),
		)
	}
}

func stubAccepted(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
