// Package provider implements the closed set of inference-provider
// variants the router dispatches to. Providers are a closed sum
// looked up by ProviderHandle.Type in a Registry map, trimmed to the
// three variants needed to exercise every capability tag: dummy
// (tests/local), openaicompat (OpenAI and any OpenAI-wire-compatible
// endpoint), and anthropic.
package provider

import (
	"context"
	"io"

	"github.com/Laisky/errors/v2"

	"github.com/opengw/llmgateway/internal/model"
)

// Request is the normalized call a Provider executes, after model
// resolution, credential merging, and body parsing.
type Request struct {
	Model       string
	Capability  model.Capability
	Credentials map[string]string
	Body        []byte
	Streaming   bool
	Headers     map[string]string
}

// Result is either a fully-buffered response or a stream; exactly one of
// Body/Stream is populated.
type Result struct {
	StatusCode int
	Body       []byte
	Stream     io.ReadCloser
	Headers    map[string]string

	ModelLatencyMS int64
	InputTokens    int
	OutputTokens   int
	FinishReason   string
}

// IsStreaming reports whether Stream is the live half of this Result.
func (r Result) IsStreaming() bool { return r.Stream != nil }

// Provider is one inference backend. Call returns a non-nil error only
// for failures eligible for retry/fallback; a successful HTTP call that
// carries an upstream error body is still returned as a Result with a nil
// error. The router treats any such Result as a success and passes it
// through; it does not inspect StatusCode, retry, or fall back on it.
type Provider interface {
	Call(ctx context.Context, req Request, cfg map[string]string) (Result, error)
}

// ErrCredentialMissing signals a provider's required credential was not
// resolvable from the merged request/store set — a precondition
// violation that must fail fast, never a silent skip.
var ErrCredentialMissing = errors.New("provider: required credential missing")

// Registry resolves a ProviderHandle.Type to its Provider implementation.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a Registry pre-populated with the three built-in
// variants; callers may Register additional ones before first use.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider, 4)}
	r.Register("dummy", NewDummyProvider())
	r.Register("openaicompat", NewOpenAICompatProvider())
	r.Register("anthropic", NewAnthropicProvider())
	return r
}

// Register installs or replaces the Provider for typ.
func (r *Registry) Register(typ string, p Provider) {
	r.providers[typ] = p
}

// ErrUnknownProviderType is returned by Get for an unregistered type.
var ErrUnknownProviderType = errors.New("provider: unknown provider type")

// Get resolves typ to its Provider.
func (r *Registry) Get(typ string) (Provider, error) {
	p, ok := r.providers[typ]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProviderType, "type=%s", typ)
	}
	return p, nil
}
