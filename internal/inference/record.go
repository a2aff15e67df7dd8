// Package inference defines the per-provider-call InferenceRecord and its
// storage. One record is produced whenever a provider returns
// successfully; batching may delay visibility but never drop it except
// on documented queue overflow.
package inference

import "time"

// EndpointType enumerates the request kinds an InferenceRecord can describe.
type EndpointType string

const (
	EndpointChat       EndpointType = "chat"
	EndpointEmbedding  EndpointType = "embedding"
	EndpointModeration EndpointType = "moderation"
	EndpointImage      EndpointType = "image"
	EndpointAudio      EndpointType = "audio"
	EndpointDocument   EndpointType = "document"
	EndpointResponse   EndpointType = "response"
)

// GuardrailScanSummary condenses a guardrail.Outcome into the fields worth
// persisting without retaining the scanned content.
type GuardrailScanSummary struct {
	Flagged    bool    `json:"flagged"`
	MaxScore   float64 `json:"max_score"`
	Action     string  `json:"action"`
}

// Record is the base InferenceRecord shape shared by every endpoint
// variant: id, function_name, variant_name, input, output, usage,
// latency, tags, extra_body, and timestamp. All endpoint types are stored
// in one table and told apart by the endpoint_type column.
type Record struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	EndpointType EndpointType `json:"endpoint_type"`
	FunctionName string       `json:"function_name"`
	VariantName  string       `json:"variant_name"`

	ModelName    string `json:"model_name"`
	ProviderType string `json:"provider_type"`

	Input  string `json:"input"`
	Output string `json:"output"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	LatencyMS int64 `json:"latency_ms"`

	FinishReason string `json:"finish_reason,omitempty"`

	Guardrail *GuardrailScanSummary `gorm:"serializer:json" json:"guardrail,omitempty"`

	Tags      map[string]string `gorm:"serializer:json" json:"tags,omitempty"`
	ExtraBody map[string]any    `gorm:"serializer:json" json:"extra_body,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
