package gwconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
bind_address: ":8080"
observability:
  metrics_enabled: true
  otlp_collector_url: "http://collector:4318"
auth:
  enabled: true
  keys:
    sk-a: ""
models:
  - name: gpt-x
    capabilities: [chat]
    providers:
      - type: openaicompat
        credential_store_key: store_gpt-x
    fallback_models: [gpt-y]
  - name: gpt-y
    capabilities: [chat]
    providers:
      - type: dummy
rate_limit_defaults:
  requests_per_minute: 120
  local_allowance: 0.2
`

func TestParseDecodesDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, ":8080", doc.BindAddress)
	assert.True(t, doc.Auth.Enabled)
	assert.Len(t, doc.Models, 2)
}

func TestToModelTableBuildsAcyclicTable(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	table, err := doc.ToModelTable()
	require.NoError(t, err)
	assert.NotNil(t, table.Get("gpt-x"))
	assert.NotNil(t, table.Get("gpt-y"))
}

func TestToModelTableRejectsCycle(t *testing.T) {
	doc, err := Parse([]byte(`
models:
  - name: a
    capabilities: [chat]
    fallback_models: [b]
  - name: b
    capabilities: [chat]
    fallback_models: [a]
`))
	require.NoError(t, err)

	_, err = doc.ToModelTable()
	assert.Error(t, err)
}

func TestToRateLimitConfigOverridesDefaults(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	cfg := doc.ToRateLimitConfig()
	assert.Equal(t, int64(120), cfg.RequestsPerMinute)
	assert.Equal(t, 0.2, cfg.LocalAllowance)
}

func TestToAPIConfigsCoversEveryKey(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	cfgs := doc.ToAPIConfigs()
	_, ok := cfgs["sk-a"]
	assert.True(t, ok)
}
