// Package auth resolves an incoming API key into an APIConfig: a per-model
// mapping of project/endpoint/model identifiers. The table is
// process-wide, hot-reloadable, in-memory state — a map guarded by
// sync.RWMutex rather than a database round trip per request.
package auth

import (
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
)

// publishedModelsPrefix marks keys whose resolved config should be merged
// with the shared published-models table.
const publishedModelsPrefix = "bud_client"

// ModelBinding is the (project, endpoint, model) triple an api-key grants
// access to for one model name.
type ModelBinding struct {
	ProjectID  string
	EndpointID string
	ModelID    string
}

// APIConfig is the per-key mapping from model name to ModelBinding.
type APIConfig struct {
	Models map[string]ModelBinding
}

// Lookup returns the binding for modelName, or false if the key's config
// does not grant access to it.
func (c *APIConfig) Lookup(modelName string) (ModelBinding, bool) {
	b, ok := c.Models[modelName]
	return b, ok
}

var (
	// ErrUnauthorized is returned by Validate for an unknown api-key.
	ErrUnauthorized = errors.New("unauthorized: unknown api key")
)

// Store is the process-wide api-key → APIConfig table, plus the narrower
// telemetry-only key table used by the OTLP proxy paths.
type Store struct {
	mu sync.RWMutex

	keys            map[string]*APIConfig
	publishedModels map[string]ModelBinding
	telemetryKeys   map[string]struct{}
}

// NewStore builds an empty Store; Reload populates it.
func NewStore() *Store {
	return &Store{
		keys:            make(map[string]*APIConfig),
		publishedModels: make(map[string]ModelBinding),
		telemetryKeys:   make(map[string]struct{}),
	}
}

// Reload atomically replaces the entire table set. Callers typically
// invoke this from a config-bus subscriber (internal/gwconfig).
func (s *Store) Reload(keys map[string]*APIConfig, publishedModels map[string]ModelBinding, telemetryKeys map[string]struct{}) {
	if keys == nil {
		keys = make(map[string]*APIConfig)
	}
	if publishedModels == nil {
		publishedModels = make(map[string]ModelBinding)
	}
	if telemetryKeys == nil {
		telemetryKeys = make(map[string]struct{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
	s.publishedModels = publishedModels
	s.telemetryKeys = telemetryKeys
}

// Validate resolves key to its APIConfig. Keys prefixed with
// "bud_client" have the shared published-models table merged into their
// own (published entries losing to any key-specific override already
// present).
func (s *Store) Validate(key string) (*APIConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.keys[key]
	if !ok {
		return nil, ErrUnauthorized
	}

	if !strings.HasPrefix(key, publishedModelsPrefix) {
		return cfg, nil
	}

	merged := &APIConfig{Models: make(map[string]ModelBinding, len(cfg.Models)+len(s.publishedModels))}
	for model, binding := range s.publishedModels {
		merged.Models[model] = binding
	}
	for model, binding := range cfg.Models {
		merged.Models[model] = binding
	}
	return merged, nil
}

// ValidateTelemetry reports whether key is a recognized telemetry-only
// (OTLP proxy) key. Unlike Validate, success carries no model scoping.
func (s *Store) ValidateTelemetry(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.telemetryKeys[key]
	return ok
}
