package proxy

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/logger"
)

// hopByHopHeaders are never forwarded end-to-end, per RFC 7230 §6.1, plus
// Authorization, so the caller's credential never reaches the deployment;
// no replacement credential is attached.
var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"TE", "Trailer", "Transfer-Encoding", "Upgrade", "Authorization",
}

// DeploymentRoute is the resolved destination for one use-case deployment.
type DeploymentRoute struct {
	IngressURL string
	ProjectID  string
	Active     bool
}

// RouteResolver maps a deployment id to its route; false means no such
// deployment exists.
type RouteResolver interface {
	Resolve(deploymentID string) (DeploymentRoute, bool)
}

// UseCaseProxy forwards /<prefix>/<deployment_id>/api/<rest> to the
// deployment's ingress URL: enforces the caller's project matches the
// route's owning project, rejects path traversal in both the raw and
// percent-decoded path, strips hop-by-hop headers, and uses a 120s
// timeout.
func UseCaseProxy(resolver RouteResolver, callerProject func(c *gin.Context) string) gin.HandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(c *gin.Context) {
		deploymentID := c.Param("deployment_id")
		rest := c.Param("rest")

		if containsTraversal(rest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid path", "type": "gateway_error"}})
			return
		}
		if decoded, err := url.PathUnescape(rest); err == nil && containsTraversal(decoded) {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid path", "type": "gateway_error"}})
			return
		}

		route, ok := resolver.Resolve(deploymentID)
		if !ok || !route.Active {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "deployment not found", "type": "gateway_error"}})
			return
		}
		if callerProject(c) != route.ProjectID {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "project mismatch", "type": "gateway_error"}})
			return
		}

		target := strings.TrimSuffix(route.IngressURL, "/") + "/" + strings.TrimPrefix(rest, "/")
		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "failed to build upstream request", "type": "gateway_error"}})
			return
		}
		req.Header = c.Request.Header.Clone()
		for _, h := range hopByHopHeaders {
			req.Header.Del(h)
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Logger.Warn("use-case proxy upstream call failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "upstream unreachable", "type": "gateway_error"}})
			return
		}
		defer resp.Body.Close()

		for k, vs := range resp.Header {
			for _, v := range vs {
				c.Writer.Header().Add(k, v)
			}
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			logger.Logger.Warn("use-case proxy response copy failed")
		}
	}
}

// containsTraversal reports whether p (raw or decoded) contains a ".."
// path segment that could escape the deployment's upstream base path.
func containsTraversal(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
