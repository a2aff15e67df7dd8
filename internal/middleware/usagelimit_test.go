package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/opengw/llmgateway/common/ctxkey"
)

type fakeUsageCache struct {
	status map[string]UsageStatus
}

func (f fakeUsageCache) Get(userID string) (UsageStatus, bool) {
	s, ok := f.status[userID]
	return s, ok
}

func TestUsageLimitDeniesExhaustedUser(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	c.Set(ctxkey.APIKeyOwner, "user-1")

	UsageLimit(fakeUsageCache{status: map[string]UsageStatus{"user-1": {Exhausted: true}}})(c)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestUsageLimitAllowsUnknownUser(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	c.Set(ctxkey.APIKeyOwner, "user-unknown")

	UsageLimit(fakeUsageCache{status: map[string]UsageStatus{}})(c)
	assert.False(t, c.IsAborted())
}
