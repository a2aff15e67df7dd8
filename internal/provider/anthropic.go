package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/opengw/llmgateway/internal/model"
)

// anthropicAPIVersion is sent on every call; Anthropic's wire format is
// versioned independently of the model.
const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider calls the Anthropic Messages API. Only the chat and
// completion capabilities are supported; anything else is a capability
// mismatch the router should already have filtered out upstream.
type AnthropicProvider struct {
	client *http.Client
}

func NewAnthropicProvider() *AnthropicProvider {
	return &AnthropicProvider{client: &http.Client{Timeout: 60 * time.Second}}
}

func (p *AnthropicProvider) Call(ctx context.Context, req Request, cfg map[string]string) (Result, error) {
	apiKey, ok := cfg["api_key"]
	if !ok || apiKey == "" {
		return Result{}, errors.Wrapf(ErrCredentialMissing, "anthropic model=%s", req.Model)
	}
	baseURL := cfg["base_url"]
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	path := "/v1/messages"
	if req.Capability == model.CapCompletion {
		path = "/v1/complete"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(req.Body))
	if err != nil {
		return Result{}, errors.Wrap(err, "build anthropic request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, errors.Wrap(err, "anthropic call")
	}
	defer resp.Body.Close()

	if req.Streaming && resp.StatusCode == http.StatusOK {
		return Result{StatusCode: resp.StatusCode, Stream: resp.Body, Headers: flattenHeader(resp.Header)}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errors.Wrap(err, "read anthropic response")
	}
	return Result{
		StatusCode:     resp.StatusCode,
		Body:           body,
		Headers:        flattenHeader(resp.Header),
		ModelLatencyMS: time.Since(start).Milliseconds(),
	}, nil
}
