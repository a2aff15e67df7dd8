// Package baggage carries the small, immutable bundle of business-context
// identifiers captured at auth time: project, prompt, endpoint, api-key,
// and user. The bundle rides the request context and is copied onto
// every child span and onto outbound HTTP calls; it is never stored in a
// goroutine-local or package-level variable.
package baggage

import (
	"context"

	"go.opentelemetry.io/otel/baggage"
)

// Bundle is the immutable set of identifiers propagated with a request.
type Bundle struct {
	Project  string
	Prompt   string
	Endpoint string
	APIKey   string
	User     string
}

type ctxKey struct{}

// WithBundle attaches b to ctx, replacing any bundle already present.
func WithBundle(ctx context.Context, b Bundle) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the bundle attached to ctx, or the zero Bundle if
// none was captured (e.g. a request that failed authentication before
// stage 4 ran).
func FromContext(ctx context.Context) Bundle {
	b, _ := ctx.Value(ctxKey{}).(Bundle)
	return b
}

// otel baggage member keys; kept short since they travel on the wire via
// the W3C baggage header on every outbound hop.
const (
	memberProject  = "project"
	memberPrompt   = "prompt"
	memberEndpoint = "endpoint"
	memberAPIKey   = "api_key"
	memberUser     = "user"
)

// ToOTelBaggage renders b as an OpenTelemetry baggage.Baggage so a span
// processor can copy it onto every child span's attributes, and so it
// survives propagation across an outbound HTTP hop via the standard
// baggage propagator.
func ToOTelBaggage(b Bundle) (baggage.Baggage, error) {
	members := make([]baggage.Member, 0, 5)
	for _, kv := range []struct{ key, value string }{
		{memberProject, b.Project},
		{memberPrompt, b.Prompt},
		{memberEndpoint, b.Endpoint},
		{memberAPIKey, b.APIKey},
		{memberUser, b.User},
	} {
		if kv.value == "" {
			continue
		}
		m, err := baggage.NewMember(kv.key, kv.value)
		if err != nil {
			return baggage.Baggage{}, err
		}
		members = append(members, m)
	}
	return baggage.New(members...)
}

// FromOTelBaggage reconstructs a Bundle from an OpenTelemetry baggage
// value, e.g. one decoded off an inbound `baggage` header.
func FromOTelBaggage(bg baggage.Baggage) Bundle {
	return Bundle{
		Project:  bg.Member(memberProject).Value(),
		Prompt:   bg.Member(memberPrompt).Value(),
		Endpoint: bg.Member(memberEndpoint).Value(),
		APIKey:   bg.Member(memberAPIKey).Value(),
		User:     bg.Member(memberUser).Value(),
	}
}

// Headers renders b as the header bundle attached to outbound HTTP calls.
func (b Bundle) Headers() map[string]string {
	h := make(map[string]string, 5)
	if b.Project != "" {
		h["X-Baggage-Project"] = b.Project
	}
	if b.Prompt != "" {
		h["X-Baggage-Prompt"] = b.Prompt
	}
	if b.Endpoint != "" {
		h["X-Baggage-Endpoint"] = b.Endpoint
	}
	if b.APIKey != "" {
		h["X-Baggage-Api-Key"] = b.APIKey
	}
	if b.User != "" {
		h["X-Baggage-User"] = b.User
	}
	return h
}
