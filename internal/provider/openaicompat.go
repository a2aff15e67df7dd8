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

// OpenAICompatProvider calls any endpoint that speaks the OpenAI wire
// format: OpenAI itself and the many self-hosted/proxy servers that mirror
// its request/response shapes. cfg["base_url"] selects the upstream;
// cfg["api_key"] (the merged request/store credential set) is sent as a
// Bearer token.
type OpenAICompatProvider struct {
	client *http.Client
}

func NewOpenAICompatProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{client: &http.Client{Timeout: 60 * time.Second}}
}

func (p *OpenAICompatProvider) Call(ctx context.Context, req Request, cfg map[string]string) (Result, error) {
	apiKey, ok := cfg["api_key"]
	if !ok || apiKey == "" {
		return Result{}, errors.Wrapf(ErrCredentialMissing, "openaicompat model=%s", req.Model)
	}
	baseURL := cfg["base_url"]
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+endpointPath(req.Capability), bytes.NewReader(req.Body))
	if err != nil {
		return Result{}, errors.Wrap(err, "build openaicompat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, errors.Wrap(err, "openaicompat call")
	}
	defer resp.Body.Close()

	if req.Streaming && resp.StatusCode == http.StatusOK {
		return Result{StatusCode: resp.StatusCode, Stream: resp.Body, Headers: flattenHeader(resp.Header)}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errors.Wrap(err, "read openaicompat response")
	}
	return Result{
		StatusCode:     resp.StatusCode,
		Body:           body,
		Headers:        flattenHeader(resp.Header),
		ModelLatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

// endpointPath maps a capability to the OpenAI-wire path it is served on.
func endpointPath(cap model.Capability) string {
	switch cap {
	case model.CapChat:
		return "/v1/chat/completions"
	case model.CapCompletion:
		return "/v1/completions"
	case model.CapEmbedding:
		return "/v1/embeddings"
	case model.CapModeration:
		return "/v1/moderations"
	case model.CapImageGeneration:
		return "/v1/images/generations"
	case model.CapAudioTranscription:
		return "/v1/audio/transcriptions"
	case model.CapAudioTranslation:
		return "/v1/audio/translations"
	case model.CapTextToSpeech:
		return "/v1/audio/speech"
	case model.CapResponse:
		return "/v1/responses"
	default:
		return "/v1/" + string(cap)
	}
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
