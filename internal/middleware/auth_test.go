package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengw/llmgateway/internal/auth"
)

func newAuthTestStore() *auth.Store {
	s := auth.NewStore()
	s.Reload(map[string]*auth.APIConfig{
		"sk-good": {Models: map[string]auth.ModelBinding{
			"gpt-x": {ProjectID: "p1", EndpointID: "e1", ModelID: "m1"},
		}},
	}, nil, nil)
	return s
}

func runAuth(t *testing.T, store *auth.Store, path string, body string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c.Request = req

	Auth(store)(c)
	return w
}

func TestAuthRejectsMissingKey(t *testing.T) {
	w := runAuth(t, newAuthTestStore(), "/v1/chat/completions", `{"model":"gpt-x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsUnknownKey(t *testing.T) {
	w := runAuth(t, newAuthTestStore(), "/v1/chat/completions", `{"model":"gpt-x"}`, "Bearer sk-bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMissingModelField(t *testing.T) {
	w := runAuth(t, newAuthTestStore(), "/v1/chat/completions", `{}`, "Bearer sk-good")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRejectsUnknownModel(t *testing.T) {
	w := runAuth(t, newAuthTestStore(), "/v1/chat/completions", `{"model":"no-such-model"}`, "Bearer sk-good")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthSucceedsAndInjectsHeaders(t *testing.T) {
	store := newAuthTestStore()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(`{"model":"gpt-x"}`))
	req.Header.Set("Authorization", "Bearer sk-good")
	c.Request = req

	Auth(store)(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gpt-x", c.Request.Header.Get(auth.HeaderModelName))
	assert.Equal(t, "p1", c.Request.Header.Get(auth.HeaderProjectID))
}

func TestAuthAllowsBatchEndpointWithoutModelField(t *testing.T) {
	w := runAuth(t, newAuthTestStore(), "/v1/batches", `{}`, "Bearer sk-good")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthStripsForgedTrustedHeaders(t *testing.T) {
	store := newAuthTestStore()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(`{"model":"gpt-x"}`))
	req.Header.Set("Authorization", "Bearer sk-good")
	req.Header.Set(auth.HeaderProjectID, "attacker-supplied")
	c.Request = req

	Auth(store)(c)
	assert.Equal(t, "p1", c.Request.Header.Get(auth.HeaderProjectID))
}
