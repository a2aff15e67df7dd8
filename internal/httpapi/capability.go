// Package httpapi registers the gateway's HTTP surface and wires the
// fixed middleware chain plus the dispatch stage that sandwiches a
// provider call between guardrail input/output evaluation.
package httpapi

import (
	"strings"

	"github.com/opengw/llmgateway/internal/inference"
	"github.com/opengw/llmgateway/internal/model"
)

// capabilityForPath maps an OpenAI-shaped request path to the model
// capability it requires.
func capabilityForPath(path string) (model.Capability, bool) {
	switch {
	case strings.HasPrefix(path, "/v1/chat/completions"):
		return model.CapChat, true
	case strings.HasPrefix(path, "/v1/completions"):
		return model.CapCompletion, true
	case strings.HasPrefix(path, "/v1/embeddings"):
		return model.CapEmbedding, true
	case strings.HasPrefix(path, "/v1/moderations"):
		return model.CapModeration, true
	case strings.HasPrefix(path, "/v1/images/generations"):
		return model.CapImageGeneration, true
	case strings.HasPrefix(path, "/v1/audio/transcriptions"):
		return model.CapAudioTranscription, true
	case strings.HasPrefix(path, "/v1/audio/translations"):
		return model.CapAudioTranslation, true
	case strings.HasPrefix(path, "/v1/audio/speech"):
		return model.CapTextToSpeech, true
	case strings.HasPrefix(path, "/v1/documents/ocr"):
		return model.CapDocument, true
	case strings.HasPrefix(path, "/v1/realtime/"):
		return model.CapRealtimeSession, true
	case strings.HasPrefix(path, "/v1/responses"), strings.HasPrefix(path, "/inference"):
		return model.CapResponse, true
	default:
		return "", false
	}
}

// endpointTypeForCapability condenses a capability to the coarser
// EndpointType an InferenceRecord is filed under — one table per
// endpoint type.
func endpointTypeForCapability(cap model.Capability) inference.EndpointType {
	switch cap {
	case model.CapChat, model.CapCompletion:
		return inference.EndpointChat
	case model.CapEmbedding:
		return inference.EndpointEmbedding
	case model.CapModeration:
		return inference.EndpointModeration
	case model.CapImageGeneration:
		return inference.EndpointImage
	case model.CapAudioTranscription, model.CapAudioTranslation, model.CapTextToSpeech:
		return inference.EndpointAudio
	case model.CapDocument:
		return inference.EndpointDocument
	default:
		return inference.EndpointResponse
	}
}
