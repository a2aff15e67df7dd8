package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengw/llmgateway/internal/model"
)

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, typ := range []string{"dummy", "openaicompat", "anthropic"} {
		p, err := r.Get(typ)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrUnknownProviderType)
}

func TestDummyProviderEchoes(t *testing.T) {
	p := NewDummyProvider()
	res, err := p.Call(context.Background(), Request{Model: "gpt-x", Body: []byte(`{"a":1}`)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.False(t, res.IsStreaming())
}

func TestOpenAICompatMissingCredential(t *testing.T) {
	p := NewOpenAICompatProvider()
	_, err := p.Call(context.Background(), Request{Model: "gpt-x", Capability: model.CapChat}, map[string]string{})
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestAnthropicMissingCredential(t *testing.T) {
	p := NewAnthropicProvider()
	_, err := p.Call(context.Background(), Request{Model: "claude-x", Capability: model.CapChat}, map[string]string{})
	assert.ErrorIs(t, err, ErrCredentialMissing)
}

func TestEndpointPathMapping(t *testing.T) {
	assert.Equal(t, "/v1/chat/completions", endpointPath(model.CapChat))
	assert.Equal(t, "/v1/embeddings", endpointPath(model.CapEmbedding))
}
