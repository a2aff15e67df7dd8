package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opengw/llmgateway/internal/inference"
	"github.com/opengw/llmgateway/internal/model"
)

func TestCapabilityForPathCoversCoreEndpoints(t *testing.T) {
	cases := map[string]model.Capability{
		"/v1/chat/completions":       model.CapChat,
		"/v1/completions":            model.CapCompletion,
		"/v1/embeddings":             model.CapEmbedding,
		"/v1/moderations":            model.CapModeration,
		"/v1/images/generations":     model.CapImageGeneration,
		"/v1/audio/transcriptions":   model.CapAudioTranscription,
		"/v1/audio/translations":     model.CapAudioTranslation,
		"/v1/audio/speech":           model.CapTextToSpeech,
		"/v1/documents/ocr":          model.CapDocument,
		"/v1/realtime/sessions":      model.CapRealtimeSession,
		"/v1/responses":              model.CapResponse,
		"/inference":                 model.CapResponse,
	}
	for path, want := range cases {
		got, ok := capabilityForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
}

func TestCapabilityForPathRejectsUnknown(t *testing.T) {
	_, ok := capabilityForPath("/v1/unknown-endpoint")
	assert.False(t, ok)
}

func TestEndpointTypeForCapability(t *testing.T) {
	assert.Equal(t, inference.EndpointChat, endpointTypeForCapability(model.CapChat))
	assert.Equal(t, inference.EndpointAudio, endpointTypeForCapability(model.CapAudioTranscription))
	assert.Equal(t, inference.EndpointResponse, endpointTypeForCapability(model.CapRealtimeSession))
}
