// Package apierrors defines the gateway's error taxonomy: every failure that
// can surface to a client or a log line carries a stable Kind, a redacted
// message, and an HTTP status, rendered as an OpenAI-shaped error body.
package apierrors

import (
	"net/http"

	"github.com/Laisky/errors/v2"
)

// Kind is a stable, client-facing error classification.
type Kind string

const (
	AuthMissing         Kind = "auth_missing"
	AuthInvalid         Kind = "auth_invalid"
	ModelNotFound       Kind = "model_not_found"
	CapabilityMismatch  Kind = "capability_mismatch"
	RateLimitExceeded   Kind = "rate_limit_exceeded"
	UsageQuotaExceeded  Kind = "usage_quota_exceeded"
	Blocked             Kind = "blocked"
	BadRequest          Kind = "bad_request"
	ProviderError       Kind = "provider_error"
	ModelChainExhausted Kind = "model_chain_exhausted"
	InternalError       Kind = "internal_error"
	Timeout             Kind = "timeout"
)

// statusByKind maps each Kind to the HTTP status it surfaces as, per spec §7.
var statusByKind = map[Kind]int{
	AuthMissing:         http.StatusUnauthorized,
	AuthInvalid:         http.StatusUnauthorized,
	ModelNotFound:       http.StatusNotFound,
	CapabilityMismatch:  http.StatusNotFound,
	RateLimitExceeded:   http.StatusTooManyRequests,
	UsageQuotaExceeded:  http.StatusPaymentRequired,
	Blocked:             http.StatusForbidden,
	BadRequest:          http.StatusBadRequest,
	ProviderError:       http.StatusBadGateway,
	ModelChainExhausted: http.StatusBadGateway,
	InternalError:       http.StatusInternalServerError,
	Timeout:             http.StatusGatewayTimeout,
}

// GatewayError is the error type every middleware/handler returns on
// failure. Message is assumed already redacted; Cause is kept for logging
// only and must never be serialized to the client.
type GatewayError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// Status returns the HTTP status code this error kind surfaces as.
func (e *GatewayError) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New builds a GatewayError with the given kind and message.
func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// Wrap builds a GatewayError that records cause for logging while exposing
// only message to the client.
func Wrap(kind Kind, cause error, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Cause: errors.Wrap(cause, message)}
}

// As extracts a *GatewayError from err, if any, defaulting to InternalError
// for unrecognized error values so callers always get a status/kind pair.
func As(err error) *GatewayError {
	if err == nil {
		return nil
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	return &GatewayError{Kind: InternalError, Message: "internal error", Cause: err}
}
