package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/baggage"
)

func TestBaggageCaptureCopiesHeadersIntoBundle(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	req.Header.Set("x-tensorzero-project-id", "proj-1")
	req.Header.Set("x-tensorzero-prompt-id", "prompt-1")
	c.Request = req
	c.Set(ctxkey.APIKeyId, "sk-good")

	BaggageCapture()(c)

	bundleAny, ok := c.Get(ctxkey.BaggageBundle)
	assert.True(t, ok)
	bundle := bundleAny.(baggage.Bundle)
	assert.Equal(t, "proj-1", bundle.Project)
	assert.Equal(t, "prompt-1", bundle.Prompt)
	assert.Equal(t, "sk-good", bundle.APIKey)

	assert.Equal(t, bundle, baggage.FromContext(c.Request.Context()))
}
