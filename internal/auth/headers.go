package auth

// Internal headers injected on a successful Validate and trusted by every
// downstream stage. They must be stripped from the inbound request before
// validation runs so a client can never forge them.
const (
	HeaderModelName  = "x-tensorzero-model-name"
	HeaderProjectID  = "x-tensorzero-project-id"
	HeaderEndpointID = "x-tensorzero-endpoint-id"
	HeaderModelID    = "x-tensorzero-model-id"
)

// TrustedHeaders lists every header name the Auth middleware strips from the
// inbound request and injects on success.
var TrustedHeaders = []string{HeaderModelName, HeaderProjectID, HeaderEndpointID, HeaderModelID}
