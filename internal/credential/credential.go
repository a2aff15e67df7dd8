// Package credential implements the process-wide credential store: a
// key->secret mapping, mutated only by config-reload events, read at every
// outbound provider call. Credentials are never logged, never serialized
// into analytics, and accessible only through explicit lookup.
package credential

import (
	"sync"

	"github.com/Laisky/errors/v2"
)

// Secret wraps a credential value so that accidental fmt/log formatting
// (via %v, %s, or a zap.Any) never leaks the underlying bytes. Callers must
// call Reveal() explicitly to use the value on an outbound call.
type Secret struct {
	value string
}

func NewSecret(value string) Secret { return Secret{value: value} }

// Reveal returns the underlying secret value for use in an outbound request.
func (s Secret) Reveal() string { return s.value }

// String satisfies fmt.Stringer with a redacted placeholder so %v/%s never
// print the real value, including when a Secret ends up inside a struct
// logged via zap.Any.
func (s Secret) String() string {
	if s.value == "" {
		return "<empty>"
	}
	return "<redacted>"
}

// Store is the process-wide credential table guarded by a synchronous
// read-write lock. A poisoned store (a panic while holding the write
// lock) is fatal: credentials must never be served stale or partial, so
// callers that observe ErrPoisoned should abort the process rather than
// continue serving traffic.
type Store struct {
	mu       sync.RWMutex
	secrets  map[string]Secret
	poisoned bool
}

// ErrPoisoned is returned by every operation once the store has been marked
// poisoned by a failed write.
var ErrPoisoned = errors.New("credential store poisoned")

// ErrNotFound is returned when a lookup key has no matching secret.
var ErrNotFound = errors.New("credential not found")

func NewStore() *Store {
	return &Store{secrets: make(map[string]Secret)}
}

// Get looks up key, returning ErrNotFound if absent.
func (s *Store) Get(key string) (Secret, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return Secret{}, ErrPoisoned
	}
	v, ok := s.secrets[key]
	if !ok {
		return Secret{}, errors.Wrapf(ErrNotFound, "key: %s", key)
	}
	return v, nil
}

// ModelKey returns the conventional "store_<model>" key for a model-owned
// credential.
func ModelKey(model string) string { return "store_" + model }

// Reload atomically replaces the entire secret set. Used by config-reload
// events; never merges partial updates so a reload is all-or-nothing.
func (s *Store) Reload(secrets map[string]string) {
	next := make(map[string]Secret, len(secrets))
	for k, v := range secrets {
		next[k] = NewSecret(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets = next
}

// Poison marks the store fatally broken; all subsequent Get calls return
// ErrPoisoned. Call this from a recover() around Reload if it panics.
func (s *Store) Poison() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poisoned = true
}

// IsPoisoned reports whether the store has been poisoned.
func (s *Store) IsPoisoned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poisoned
}

// MergeCredentials merges request-supplied credentials over store
// credentials, with request values always winning on conflict.
func MergeCredentials(store map[string]string, request map[string]string) map[string]string {
	merged := make(map[string]string, len(store)+len(request))
	for k, v := range store {
		merged[k] = v
	}
	for k, v := range request {
		merged[k] = v
	}
	return merged
}
