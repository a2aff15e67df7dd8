// Package model holds the process-wide model table: the mapping from model
// name to its ordered provider list, capability set, fallback chain, and
// optional rate-limit/guardrail bindings. It is read-mostly and reloaded by
// swapping an atomic pointer rather than mutating in place.
package model

import (
	"github.com/Laisky/errors/v2"
)

// Capability tags the endpoint kinds a model can serve.
type Capability string

const (
	CapChat               Capability = "chat"
	CapCompletion         Capability = "completion"
	CapEmbedding          Capability = "embedding"
	CapModeration         Capability = "moderation"
	CapImageGeneration    Capability = "image-generation"
	CapAudioTranscription Capability = "audio-transcription"
	CapAudioTranslation   Capability = "audio-translation"
	CapTextToSpeech       Capability = "text-to-speech"
	CapDocument           Capability = "document"
	CapResponse           Capability = "response"
	CapRealtimeSession    Capability = "realtime-session"
)

// CredentialLocation describes where a provider's secret comes from.
type CredentialLocation struct {
	// Env names an environment variable holding the secret.
	Env string
	// Static is a literal secret value baked into config (test/dev only).
	Static string
	// StoreKey names an entry in the CredentialStore, conventionally
	// "store_<model>" for model-owned credentials.
	StoreKey string
}

// ProviderHandle is one entry in a ModelEntry's ordered provider list.
type ProviderHandle struct {
	// Type selects the provider variant (see internal/provider).
	Type string
	// Config carries provider-specific, opaque parameters (base URL, etc.).
	Config map[string]string
	Credential CredentialLocation
}

// RetryPolicy bounds per-provider retry attempts with exponential backoff.
type RetryPolicy struct {
	NumRetries int
	BaseDelayMS int
	MaxDelayS   int
}

// DefaultRetryPolicy is used when a ModelEntry does not override it.
var DefaultRetryPolicy = RetryPolicy{NumRetries: 2, BaseDelayMS: 100, MaxDelayS: 5}

// Entry is a routing record: one row of the model table.
type Entry struct {
	Name            string
	Providers       []ProviderHandle
	Capabilities    map[Capability]struct{}
	FallbackModels  []string
	Retry           RetryPolicy
	RateLimitProfile string
	GuardrailProfile string
}

// HasCapability reports whether this entry can serve cap.
func (e *Entry) HasCapability(cap Capability) bool {
	_, ok := e.Capabilities[cap]
	return ok
}

// Table is the full model table: read-mostly, swapped wholesale on reload.
type Table struct {
	entries map[string]*Entry
}

// NewTable builds a Table from entries, validating the fallback graph is
// acyclic. Returns an error naming the cycle on failure: a cyclic
// fallback graph must refuse to start, never silently loop.
func NewTable(entries []*Entry) (*Table, error) {
	t := &Table{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		t.entries[e.Name] = e
	}
	if cycle := findCycle(t.entries); cycle != nil {
		return nil, errors.Errorf("fallback graph contains a cycle: %v", cycle)
	}
	return t, nil
}

// Get returns the entry for name, or nil if absent.
func (t *Table) Get(name string) *Entry {
	if t == nil {
		return nil
	}
	return t.entries[name]
}

// findCycle runs DFS over the fallback_models edges and returns the first
// cycle found as a slice of model names, or nil if the graph is acyclic.
func findCycle(entries map[string]*Entry) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(entries))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		if color[name] == black {
			return false
		}
		if color[name] == gray {
			// Found the back-edge; slice path from the first occurrence of name.
			for i, n := range path {
				if n == name {
					cycle = append(append([]string{}, path[i:]...), name)
					return true
				}
			}
			cycle = []string{name, name}
			return true
		}
		color[name] = gray
		path = append(path, name)
		entry := entries[name]
		if entry != nil {
			for _, next := range entry.FallbackModels {
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	for name := range entries {
		if color[name] == white {
			if visit(name) {
				return cycle
			}
		}
	}
	return nil
}
