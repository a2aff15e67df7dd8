package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordCarriesGuardrailSummary(t *testing.T) {
	r := Record{
		ID:           "inf-1",
		EndpointType: EndpointChat,
		ModelName:    "gpt-x",
		InputTokens:  10,
		OutputTokens: 20,
		LatencyMS:    150,
		Guardrail:    &GuardrailScanSummary{Flagged: true, MaxScore: 0.9, Action: "block"},
		Timestamp:    time.Now(),
	}
	assert.True(t, r.Guardrail.Flagged)
	assert.Equal(t, EndpointChat, r.EndpointType)
}
