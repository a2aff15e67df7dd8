package provider

import (
	"context"
	"fmt"
)

// DummyProvider answers every call locally without a network hop. It
// exists for local development and for exercising the router/guardrail
// pipeline in tests without a live upstream.
type DummyProvider struct{}

func NewDummyProvider() *DummyProvider { return &DummyProvider{} }

func (p *DummyProvider) Call(_ context.Context, req Request, _ map[string]string) (Result, error) {
	echo := fmt.Sprintf(`{"model":%q,"echo":%q}`, req.Model, string(req.Body))
	return Result{
		StatusCode:     200,
		Body:           []byte(echo),
		ModelLatencyMS: 1,
		InputTokens:    len(req.Body) / 4,
		OutputTokens:   len(echo) / 4,
		FinishReason:   "stop",
	}, nil
}
