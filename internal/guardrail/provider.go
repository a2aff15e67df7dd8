package guardrail

import (
	"context"

	"github.com/Laisky/errors/v2"
)

// Provider is a guardrail scanner backend. One provider type per real
// content-safety vendor would plug in here; this repo carries a single
// "dummy" provider (regex/length checks) grounded on agentoven's built-in
// RegexFilter/MaxLength scanner kinds, enough to exercise every orchestrator
// code path end to end.
type Provider interface {
	// Scan evaluates text against cfg's enabled probes/rules and returns a
	// ScanResult. An error here is a provider-transport failure, not a
	// content verdict; the orchestrator applies FailureMode to it.
	Scan(ctx context.Context, cfg ScannerConfig, text string) (*ScanResult, error)
}

// registry maps a ScannerConfig.ProviderType to its Provider implementation.
type registry struct {
	providers map[string]Provider
}

func NewRegistry() *registry {
	return &registry{providers: map[string]Provider{
		"dummy": NewDummyProvider(),
	}}
}

func (r *registry) Register(providerType string, p Provider) {
	r.providers[providerType] = p
}

var ErrUnknownProvider = errors.New("unknown guardrail provider type")

func (r *registry) Get(providerType string) (Provider, error) {
	p, ok := r.providers[providerType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "provider type: %s", providerType)
	}
	return p, nil
}
