package middleware

import (
	"github.com/gin-gonic/gin"
	otelbaggage "go.opentelemetry.io/otel/baggage"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/baggage"
)

// internal header names the trusted auth stage has already populated by
// the time this middleware runs (see internal/auth headers + Request
// header "X-Baggage-User" set by callers upstream of the gateway, when
// present).
const headerBaggageUser = "X-Baggage-User"

// BaggageCapture copies the fixed set of internal identifiers into a
// baggage.Bundle attached to the request context and into OTel span
// baggage.
func BaggageCapture() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey, _ := c.Get(ctxkey.APIKeyId)
		bundle := baggage.Bundle{
			Project:  c.Request.Header.Get("x-tensorzero-project-id"),
			Prompt:   c.Request.Header.Get("x-tensorzero-prompt-id"),
			Endpoint: c.Request.Header.Get("x-tensorzero-endpoint-id"),
			User:     c.Request.Header.Get(headerBaggageUser),
		}
		if s, ok := apiKey.(string); ok {
			bundle.APIKey = s
		}

		ctx := baggage.WithBundle(c.Request.Context(), bundle)
		if bg, err := baggage.ToOTelBaggage(bundle); err == nil {
			ctx = otelbaggage.ContextWithBaggage(ctx, bg)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ctxkey.BaggageBundle, bundle)

		c.Next()
	}
}
