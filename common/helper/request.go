package helper

import (
	"github.com/opengw/llmgateway/common/random"
)

// RequestIdKey is the gin context key and response header name carrying the
// per-request id assigned at ingress.
const RequestIdKey = "X-Request-Id"

// GenRequestID returns a new time-ordered request identifier (UUIDv7,
// hyphens stripped) so ids sort lexically in the same order they were issued.
func GenRequestID() string {
	return random.GetUUID()
}

// MessageWithRequestId appends the request id to an error message so clients
// and logs can be correlated without a second round trip.
func MessageWithRequestId(message string, requestId string) string {
	if requestId == "" {
		return message
	}
	return message + " (request id: " + requestId + ")"
}
