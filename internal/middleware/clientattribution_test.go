package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/opengw/llmgateway/common/ctxkey"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runClientAttribution(t *testing.T, setup func(r *http.Request)) string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	setup(req)
	c.Request = req

	ClientAttribution(nil)(c)
	return c.GetString(ctxkey.ClientIP)
}

func TestClientAttributionPrefersPlaygroundHeader(t *testing.T) {
	ip := runClientAttribution(t, func(r *http.Request) {
		r.Header.Set("X-Playground-Client-IP", "203.0.113.5")
		r.Header.Set("X-Real-IP", "203.0.113.9")
	})
	assert.Equal(t, "203.0.113.5", ip)
}

func TestClientAttributionXFFFirstPublicIP(t *testing.T) {
	ip := runClientAttribution(t, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "10.0.0.5, 203.0.113.7, 198.51.100.9")
	})
	assert.Equal(t, "203.0.113.7", ip)
}

func TestClientAttributionFallsBackToConnectionAddress(t *testing.T) {
	ip := runClientAttribution(t, func(r *http.Request) {
		r.RemoteAddr = "198.51.100.20:1234"
	})
	assert.Equal(t, "198.51.100.20", ip)
}
