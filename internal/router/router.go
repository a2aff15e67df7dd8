// Package router implements model routing with fallback as an iterative
// worklist over the model table, never recursive: a request for a model
// first tries that model's own providers, then walks its fallback_models
// edges breadth-first, skipping anything already tried. Retries happen
// within one provider; fallbacks happen across providers and models.
package router

import (
	"context"
	"math/rand"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/opengw/llmgateway/common/logger"
	"github.com/opengw/llmgateway/internal/credential"
	"github.com/opengw/llmgateway/internal/model"
	"github.com/opengw/llmgateway/internal/provider"
)

// ErrModelChainExhausted is wrapped with the per-model error detail when
// every model in the fallback chain has been tried and failed.
var ErrModelChainExhausted = errors.New("model chain exhausted")

// ErrCapabilityMismatch marks a model skipped because it lacks the
// request's required capability — recorded, never treated as a hard error.
var ErrCapabilityMismatch = errors.New("model does not support required capability")

// ErrModelNotFound marks a fallback target absent from the model table.
var ErrModelNotFound = errors.New("model not found")

// Router resolves a model name plus request into a provider Result,
// walking the fallback graph on failure.
type Router struct {
	models      *model.Store
	credentials *credential.Store
	providers   *provider.Registry
}

func New(models *model.Store, credentials *credential.Store, providers *provider.Registry) *Router {
	return &Router{models: models, credentials: credentials, providers: providers}
}

// Route resolves modelName to a provider result, walking the fallback
// graph breadth-first via an explicit queue/tried-set loop.
func (r *Router) Route(ctx context.Context, modelName string, req provider.Request) (provider.Result, error) {
	table := r.models.Load()

	tried := make(map[string]struct{})
	errs := make(map[string]error)
	queue := []string{modelName}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if _, seen := tried[m]; seen {
			continue
		}
		tried[m] = struct{}{}

		entry := table.Get(m)
		if entry == nil {
			errs[m] = ErrModelNotFound
			continue
		}
		if !entry.HasCapability(req.Capability) {
			errs[m] = ErrCapabilityMismatch
			queue = append(queue, entry.FallbackModels...)
			continue
		}

		result, err := r.tryProviders(ctx, entry, req)
		if err == nil {
			return result, nil
		}
		errs[m] = err

		queue = append(queue, entry.FallbackModels...)
	}

	// A single model tried and failed carries no real fallback chain to
	// exhaust; surface its own error kind (not-found / capability mismatch)
	// directly so callers can map it to its own narrower status rather
	// than the blanket chain-exhausted 502.
	if len(tried) == 1 {
		return provider.Result{}, errs[modelName]
	}

	return provider.Result{}, errors.Wrapf(ErrModelChainExhausted, "tried=%v errs=%v", keysOf(tried), errs)
}

// tryProviders attempts every provider configured for entry in order,
// each with its own retry policy, returning the first success.
func (r *Router) tryProviders(ctx context.Context, entry *model.Entry, req provider.Request) (provider.Result, error) {
	req.Model = entry.Name
	policy := entry.Retry
	if policy.NumRetries == 0 && policy.BaseDelayMS == 0 {
		policy = model.DefaultRetryPolicy
	}

	var lastErr error
	for _, handle := range entry.Providers {
		p, err := r.providers.Get(handle.Type)
		if err != nil {
			lastErr = err
			continue
		}

		cfg, err := r.resolveCredential(entry.Name, handle, req.Credentials)
		if err != nil {
			lastErr = err
			continue
		}

		result, err := r.callWithRetry(ctx, p, req, cfg, policy)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Logger.Warn("provider call failed, trying next provider",
			zap.String("model", entry.Name), zap.String("provider_type", handle.Type), zap.Error(err))
	}
	if lastErr == nil {
		lastErr = errors.Errorf("model %s has no providers configured", entry.Name)
	}
	return provider.Result{}, lastErr
}

// resolveCredential merges the request's supplied credentials over the
// store's, request always winning. A provider configured with a store
// credential key that has no matching entry is a hard failure, never a
// silent skip.
func (r *Router) resolveCredential(modelName string, handle model.ProviderHandle, requestCreds map[string]string) (map[string]string, error) {
	store := make(map[string]string)
	switch {
	case handle.Credential.StoreKey != "":
		secret, err := r.credentials.Get(handle.Credential.StoreKey)
		if err != nil {
			return nil, errors.Wrapf(provider.ErrCredentialMissing, "store key %q for model %s: %v", handle.Credential.StoreKey, modelName, err)
		}
		store["api_key"] = secret.Reveal()
	case handle.Credential.Static != "":
		store["api_key"] = handle.Credential.Static
	}
	for k, v := range handle.Config {
		if _, ok := store[k]; !ok {
			store[k] = v
		}
	}
	return credential.MergeCredentials(store, requestCreds), nil
}

// callWithRetry retries p.Call up to policy.NumRetries additional times
// with exponential backoff and jitter, honoring ctx cancellation.
func (r *Router) callWithRetry(ctx context.Context, p provider.Provider, req provider.Request, cfg map[string]string, policy model.RetryPolicy) (provider.Result, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.NumRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, policy)
			select {
			case <-ctx.Done():
				return provider.Result{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := p.Call(ctx, req, cfg)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if req.Streaming && result.IsStreaming() {
			// Bytes have already flowed; a mid-stream error is not retried.
			return result, err
		}
	}
	return provider.Result{}, lastErr
}

// backoffDelay computes exponential backoff with full jitter, capped at
// policy.MaxDelayS.
func backoffDelay(attempt int, policy model.RetryPolicy) time.Duration {
	base := time.Duration(policy.BaseDelayMS) * time.Millisecond
	max := time.Duration(policy.MaxDelayS) * time.Second
	delay := base << uint(attempt-1)
	if delay > max {
		delay = max
	}
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
