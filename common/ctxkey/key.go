package ctxkey

import "github.com/gin-gonic/gin"

// Context keys used to thread per-request state through the gateway pipeline.
// Every stage of the middleware chain (see internal/middleware) reads and
// writes a subset of these; keep the set additive only, other stages rely on
// earlier ones having already run.
const (
	// RequestId is the time-ordered id assigned to this request at ingress.
	RequestId = "request_id"

	// KeyRequestBody caches the raw request body bytes so later stages (model
	// extraction, guardrail scanning) can re-read a body already consumed by
	// an earlier stage without re-reading the socket.
	KeyRequestBody = gin.BodyBytesKey

	// APIKeyId is the id of the authenticated credential resolved during auth.
	APIKeyId = "api_key_id"

	// APIKeyOwner is the logical owner/tenant attached to the credential.
	APIKeyOwner = "api_key_owner"

	// ClientIP is the attributed public client IP (see internal/middleware/clientattribution.go).
	ClientIP = "client_ip"

	// Country is the resolved client country code, when geo attribution is configured.
	Country = "country"

	// RequestModel is the model name Auth resolved from the request body
	// before routing. Never mutated downstream — Dispatch and Router read
	// this key exclusively.
	RequestModel = "request_model"

	// RateLimitModel is the model name used to bucket the rate limiter,
	// resolved independently of RequestModel (an endpoint-id header takes
	// priority here but must never affect routing). Only RateLimit reads
	// this key.
	RateLimitModel = "rate_limit_model"

	// ModelEntry holds the resolved *model.Entry once routing has selected it.
	ModelEntry = "model_entry"

	// ProviderName is the provider variant chosen for this attempt (after fallback).
	ProviderName = "provider_name"

	// RateLimitDecision carries the outcome of the rate limiting stage for
	// logging/metrics (allowed, remaining, reset, layer that decided).
	RateLimitDecision = "rate_limit_decision"

	// UsageLimitDecision carries the outcome of the usage limit check.
	UsageLimitDecision = "usage_limit_decision"

	// BaggageBundle carries the parsed/propagated baggage entries for this request.
	BaggageBundle = "baggage_bundle"

	// GuardrailInputResult stores the merged input-stage guardrail scan result.
	GuardrailInputResult = "guardrail_input_result"

	// GuardrailOutputResult stores the merged output-stage guardrail scan result.
	GuardrailOutputResult = "guardrail_output_result"

	// TraceStart records the monotonic start time used to compute request latency.
	TraceStart = "trace_start"
)

// Response headers the dispatch stage sets and the egress stage reads
// back off the gin writer.
const (
	HeaderInferenceID    = "x-tensorzero-inference-id"
	HeaderModelLatencyMS = "x-tensorzero-model-latency-ms"
)
