package middleware

import (
	"net/http"
	"strings"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/auth"
)

// batchOrFileEndpointPrefixes are exempt from the model-field requirement
// imposed on every other endpoint.
var batchOrFileEndpointPrefixes = []string{"/v1/batches", "/v1/files"}

// Auth resolves the request's api-key, and — for every endpoint other
// than batch/file uploads — requires and resolves a model field from the
// JSON body, injecting the trusted x-tensorzero-* headers on success. Any
// externally-supplied copy of those headers is stripped first so a
// client can never forge them.
func Auth(store *auth.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range auth.TrustedHeaders {
			c.Request.Header.Del(h)
		}

		key := bearerToken(c.Request.Header.Get("Authorization"))
		if key == "" {
			abortUnauthorized(c, "missing api key")
			return
		}

		cfg, err := store.Validate(key)
		if err != nil {
			abortUnauthorized(c, "invalid api key")
			return
		}
		c.Set(ctxkey.APIKeyId, key)

		if isBatchOrFileEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		var body modelRequestBody
		if err := common.UnmarshalBodyReusable(c, &body); err != nil || body.Model == "" {
			abortWithStatus(c, http.StatusBadRequest, "missing model field")
			return
		}

		binding, ok := cfg.Lookup(body.Model)
		if !ok {
			abortWithStatus(c, http.StatusNotFound, "unknown model: "+body.Model)
			return
		}

		c.Request.Header.Set(auth.HeaderModelName, body.Model)
		c.Request.Header.Set(auth.HeaderProjectID, binding.ProjectID)
		c.Request.Header.Set(auth.HeaderEndpointID, binding.EndpointID)
		c.Request.Header.Set(auth.HeaderModelID, binding.ModelID)
		c.Set(ctxkey.RequestModel, body.Model)

		c.Next()
	}
}

func isBatchOrFileEndpoint(path string) bool {
	for _, prefix := range batchOrFileEndpointPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthTelemetry validates a telemetry-only key (OTLP proxy paths), which
// is not model-scoped.
func AuthTelemetry(store *auth.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c.Request.Header.Get("Authorization"))
		if key == "" || !store.ValidateTelemetry(key) {
			abortUnauthorized(c, "invalid telemetry key")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func abortUnauthorized(c *gin.Context, msg string) {
	abortWithStatus(c, http.StatusUnauthorized, msg)
}

func abortWithStatus(c *gin.Context, status int, msg string) {
	lg := gmw.GetLogger(c)
	lg.Warn("request rejected: " + msg)
	c.JSON(status, gin.H{"error": gin.H{"message": msg, "type": "gateway_error", "code": status}})
	c.Abort()
}
