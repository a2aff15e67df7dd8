package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOTLPProxyForwardsToCollector(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/v1/traces", nil)
	req.Header.Set("Authorization", "Bearer secret")
	c.Request = req

	OTLPProxy(upstream.URL)(c)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestOTLPProxyReturns502OnUnreachableCollector(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/traces", nil)

	OTLPProxy("http://127.0.0.1:0")(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

type staticResolver struct {
	route DeploymentRoute
	found bool
}

func (s staticResolver) Resolve(string) (DeploymentRoute, bool) { return s.route, s.found }

func TestUseCaseProxyRejectsPathTraversal(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/proxy/dep-1/api/../../etc/passwd", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "deployment_id", Value: "dep-1"}, {Key: "rest", Value: "../../etc/passwd"}}

	UseCaseProxy(staticResolver{}, func(*gin.Context) string { return "p1" })(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUseCaseProxyRejectsProjectMismatch(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/proxy/dep-1/api/status", nil)
	c.Params = gin.Params{{Key: "deployment_id", Value: "dep-1"}, {Key: "rest", Value: "status"}}

	resolver := staticResolver{found: true, route: DeploymentRoute{IngressURL: "http://example.invalid", ProjectID: "owner-project", Active: true}}
	UseCaseProxy(resolver, func(*gin.Context) string { return "caller-project" })(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUseCaseProxyForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "/status", r.URL.Path)
		assert.Empty(t, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/proxy/dep-1/api/status", nil)
	c.Params = gin.Params{{Key: "deployment_id", Value: "dep-1"}, {Key: "rest", Value: "status"}}

	resolver := staticResolver{found: true, route: DeploymentRoute{IngressURL: upstream.URL, ProjectID: "p1", Active: true}}
	UseCaseProxy(resolver, func(*gin.Context) string { return "p1" })(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUseCaseProxyNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/proxy/dep-1/api/status", nil)
	c.Params = gin.Params{{Key: "deployment_id", Value: "dep-1"}, {Key: "rest", Value: "status"}}

	UseCaseProxy(staticResolver{found: false}, func(*gin.Context) string { return "p1" })(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
