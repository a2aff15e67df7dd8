package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticRules struct {
	rules []BlockRule
}

func (s staticRules) RulesFor(string) []BlockRule { return s.rules }

func TestBlockingRulesBlocksOnMatch(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	req.Header.Set("x-tensorzero-project-id", "proj-1")
	c.Request = req

	Ingress()(c)
	BlockingRules(staticRules{rules: []BlockRule{{Name: "block-proj-1", Project: "proj-1"}}})(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	rec := recordFrom(c)
	rec.Mu.Lock()
	defer rec.Mu.Unlock()
	assert.True(t, rec.Blocked)
	assert.Equal(t, "block-proj-1", rec.BlockRule)
}

func TestBlockingRulesAllowsNonMatch(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	req.Header.Set("x-tensorzero-project-id", "proj-2")
	c.Request = req

	BlockingRules(staticRules{rules: []BlockRule{{Name: "block-proj-1", Project: "proj-1"}}})(c)
	assert.False(t, c.IsAborted())
}
