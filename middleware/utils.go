package middleware

import (
	"strings"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/helper"
)

// ModelRequest is the minimal JSON shape the gateway needs to peek the model
// name out of an otherwise provider-specific request body.
type ModelRequest struct {
	Model string `json:"model"`
}

// AbortWithError aborts the request with an OpenAI-shaped error body.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if ignoreServerError(err) {
		logger.Warn("request aborted", zap.Int("status_code", statusCode), zap.Error(err))
	} else {
		logger.Error("request aborted", zap.Int("status_code", statusCode), zap.Error(err))
	}

	c.JSON(statusCode, gin.H{
		"error": gin.H{
			"message": helper.MessageWithRequestId(err.Error(), c.GetString(helper.RequestIdKey)),
			"type":    "gateway_error",
		},
	})
	c.Abort()
}

func ignoreServerError(err error) bool {
	return strings.Contains(err.Error(), "credential not found for key:")
}

// getRequestModel extracts the model name from the request body, filling in
// endpoint-specific defaults the same way the upstream OpenAI API does for
// endpoints that allow omitting it.
func getRequestModel(c *gin.Context) (string, error) {
	var req ModelRequest
	if err := common.UnmarshalBodyReusable(c, &req); err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(c.Request.URL.Path, "/v1/moderations"):
		if req.Model == "" {
			req.Model = "text-moderation-stable"
		}
	case strings.HasPrefix(c.Request.URL.Path, "/v1/images/generations"),
		strings.HasPrefix(c.Request.URL.Path, "/v1/images/edits"):
		if req.Model == "" {
			req.Model = "dall-e-2"
		}
	case strings.HasPrefix(c.Request.URL.Path, "/v1/audio/transcriptions"),
		strings.HasPrefix(c.Request.URL.Path, "/v1/audio/translations"):
		if req.Model == "" {
			req.Model = "whisper-1"
		}
	}

	return req.Model, nil
}

func isModelInList(modelName string, models string) bool {
	for _, m := range strings.Split(models, ",") {
		if modelName == m {
			return true
		}
	}
	return false
}

// GetTokenKeyParts splits a Bearer credential of the form `sk-{token}[-{suffix}]`.
func GetTokenKeyParts(c *gin.Context) []string {
	key := c.Request.Header.Get("Authorization")
	key = strings.TrimPrefix(key, "Bearer ")
	key = strings.TrimPrefix(key, "sk-")
	return strings.Split(key, "-")
}
