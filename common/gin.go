package common

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common/ctxkey"
)

// GetRequestBody reads the request body and caches it on the gin context so
// later stages (model extraction, guardrail scanning, logging) can read it
// again without exhausting the underlying reader.
func GetRequestBody(c *gin.Context) ([]byte, error) {
	if cached, ok := c.Get(ctxkey.KeyRequestBody); ok {
		if body, ok := cached.([]byte); ok {
			return body, nil
		}
	}

	if c.Request.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	c.Set(ctxkey.KeyRequestBody, body)
	return body, nil
}

// UnmarshalBodyReusable decodes the JSON request body into v while leaving
// the body intact for subsequent readers.
func UnmarshalBodyReusable(c *gin.Context, v any) error {
	body, err := GetRequestBody(c)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "unmarshal request body")
	}
	return nil
}
