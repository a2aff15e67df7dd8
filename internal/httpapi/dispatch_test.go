package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/internal/batcher"
	"github.com/opengw/llmgateway/internal/credential"
	"github.com/opengw/llmgateway/internal/guardrail"
	"github.com/opengw/llmgateway/internal/inference"
	"github.com/opengw/llmgateway/internal/model"
	"github.com/opengw/llmgateway/internal/provider"
	"github.com/opengw/llmgateway/internal/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDeps(t *testing.T, entries []*model.Entry) *Dependencies {
	t.Helper()
	table, err := model.NewTable(entries)
	require.NoError(t, err)
	models := model.NewStore()
	models.Swap(table)

	reg := provider.NewRegistry()
	r := router.New(models, credential.NewStore(), reg)

	guardrails := guardrail.NewOrchestrator(guardrail.NewRegistry())
	inferenceQueue := batcher.New[inference.Record](inference.NopStore{}, 10, 10, time.Minute)

	return &Dependencies{
		Models:     models,
		Router:     r,
		Guardrails: guardrails,
		Profiles:   func() map[string]*guardrail.Profile { return map[string]*guardrail.Profile{} },
		Inference:  inferenceQueue,
	}
}

func runDispatch(t *testing.T, deps *Dependencies, path, modelName, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	c.Set(ctxkey.RequestModel, modelName)

	Dispatch(deps)(c)
	return w
}

func TestDispatchEchoesThroughDummyProvider(t *testing.T) {
	deps := newTestDeps(t, []*model.Entry{{
		Name:         "m1",
		Providers:    []model.ProviderHandle{{Type: "dummy"}},
		Capabilities: map[model.Capability]struct{}{model.CapChat: {}},
	}})

	w := runDispatch(t, deps, "/v1/chat/completions", "m1", `{"model":"m1","messages":[{"role":"user","content":"hello"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "m1")
	assert.NotEmpty(t, w.Header().Get(ctxkey.HeaderInferenceID))
}

func TestDispatchRejectsMissingModel(t *testing.T) {
	deps := newTestDeps(t, nil)
	w := runDispatch(t, deps, "/v1/chat/completions", "", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchReturns404ForUnknownModel(t *testing.T) {
	deps := newTestDeps(t, nil)
	w := runDispatch(t, deps, "/v1/chat/completions", "ghost", `{"model":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchBlocksOnGuardrailKeywordMatch(t *testing.T) {
	deps := newTestDeps(t, []*model.Entry{{
		Name:             "m1",
		Providers:        []model.ProviderHandle{{Type: "dummy"}},
		Capabilities:     map[model.Capability]struct{}{model.CapChat: {}},
		GuardrailProfile: "strict",
	}})
	deps.Profiles = func() map[string]*guardrail.Profile {
		return map[string]*guardrail.Profile{
			"strict": {
				ID:            "strict",
				ExecutionMode: guardrail.ExecutionSequential,
				FailureMode:   guardrail.FailFast,
				Directions:    map[guardrail.Direction]struct{}{guardrail.DirectionInput: {}},
				Scanners:      []guardrail.ScannerConfig{{ProviderType: "dummy", Direction: guardrail.DirectionInput}},
			},
		}
	}

	w := runDispatch(t, deps, "/v1/chat/completions", "m1", `{"model":"m1","messages":[{"role":"user","content":"I will kill you"}]}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, w.Header().Get("x-block-reason"))
}

func TestDispatchReportsCapabilityMismatch(t *testing.T) {
	deps := newTestDeps(t, []*model.Entry{{
		Name:         "m1",
		Providers:    []model.ProviderHandle{{Type: "dummy"}},
		Capabilities: map[model.Capability]struct{}{model.CapEmbedding: {}},
	}})

	// m1 has no fallback, so only one model is ever tried and Route surfaces
	// ErrCapabilityMismatch directly rather than wrapping it as a chain
	// exhaustion (see router.Route's len(tried)==1 short-circuit).
	w := runDispatch(t, deps, "/v1/chat/completions", "m1", `{"model":"m1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatchReportsChainExhaustedWithFallback(t *testing.T) {
	deps := newTestDeps(t, []*model.Entry{
		{
			Name:           "m1",
			Providers:      []model.ProviderHandle{{Type: "dummy-missing"}},
			Capabilities:   map[model.Capability]struct{}{model.CapChat: {}},
			FallbackModels: []string{"m2"},
		},
		{
			Name:         "m2",
			Providers:    []model.ProviderHandle{{Type: "dummy-missing"}},
			Capabilities: map[model.Capability]struct{}{model.CapChat: {}},
		},
	})

	// Both m1 and m2 are tried (a real fallback chain), so Route wraps the
	// terminal failure as ErrModelChainExhausted.
	w := runDispatch(t, deps, "/v1/chat/completions", "m1", `{"model":"m1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
