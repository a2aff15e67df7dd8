package guardrail

import (
	"context"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/opengw/llmgateway/common/logger"
)

// Orchestrator evaluates a Profile's scanners against input/output text and
// applies the configured merge and decision rules.
type Orchestrator struct {
	registry *registry
}

func NewOrchestrator(registry *registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Outcome is the stage-level decision handed back to the middleware.
type Outcome struct {
	Result  *ScanResult
	Flagged bool
}

// EvaluateInput runs the input-direction scanners of profile.
func (o *Orchestrator) EvaluateInput(ctx context.Context, profile *Profile, text string) (Outcome, error) {
	return o.evaluate(ctx, profile, DirectionInput, text)
}

// EvaluateOutput runs the output-direction scanners of profile.
func (o *Orchestrator) EvaluateOutput(ctx context.Context, profile *Profile, text string) (Outcome, error) {
	return o.evaluate(ctx, profile, DirectionOutput, text)
}

func (o *Orchestrator) evaluate(ctx context.Context, profile *Profile, stage Direction, text string) (Outcome, error) {
	merged := NewScanResult()
	if profile == nil || !profile.AppliesToDirection(stage) {
		return Outcome{Result: merged}, nil
	}

	applicable := make([]ScannerConfig, 0, len(profile.Scanners))
	for _, s := range profile.Scanners {
		if s.AppliesToStage(stage) {
			applicable = append(applicable, s)
		}
	}
	if len(applicable) == 0 {
		return Outcome{Result: merged}, nil
	}

	var err error
	switch profile.ExecutionMode {
	case ExecutionSequential:
		merged, err = o.evaluateSequential(ctx, profile, applicable, text)
	default:
		merged, err = o.evaluateParallel(ctx, profile, applicable, text)
	}
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Result: merged, Flagged: merged.Decision(profile.SeverityThreshold)}, nil
}

func (o *Orchestrator) evaluateOne(ctx context.Context, cfg ScannerConfig, text string) (*ScanResult, error) {
	provider, err := o.registry.Get(cfg.ProviderType)
	if err != nil {
		return nil, err
	}
	return provider.Scan(ctx, cfg, text)
}

func (o *Orchestrator) evaluateSequential(ctx context.Context, profile *Profile, scanners []ScannerConfig, text string) (*ScanResult, error) {
	merged := NewScanResult()
	for _, cfg := range scanners {
		result, err := o.evaluateOne(ctx, cfg, text)
		if err != nil {
			if profile.FailureMode == FailFast {
				return nil, errors.Wrapf(err, "scanner %s failed (fail_fast)", cfg.ProviderType)
			}
			logger.Logger.Warn("guardrail scanner failed, continuing (best_effort)",
				zap.String("provider", cfg.ProviderType), zap.Error(err))
			continue
		}
		merged.Merge(result)
	}
	return merged, nil
}

func (o *Orchestrator) evaluateParallel(ctx context.Context, profile *Profile, scanners []ScannerConfig, text string) (*ScanResult, error) {
	type outcome struct {
		result *ScanResult
		err    error
		cfg    ScannerConfig
	}
	outcomes := make([]outcome, len(scanners))

	var wg sync.WaitGroup
	for i, cfg := range scanners {
		wg.Add(1)
		go func(i int, cfg ScannerConfig) {
			defer wg.Done()
			result, err := o.evaluateOne(ctx, cfg, text)
			outcomes[i] = outcome{result: result, err: err, cfg: cfg}
		}(i, cfg)
	}
	wg.Wait()

	merged := NewScanResult()
	for _, oc := range outcomes {
		if oc.err != nil {
			if profile.FailureMode == FailFast {
				return nil, errors.Wrapf(oc.err, "scanner %s failed (fail_fast)", oc.cfg.ProviderType)
			}
			logger.Logger.Warn("guardrail scanner failed, continuing (best_effort)",
				zap.String("provider", oc.cfg.ProviderType), zap.Error(oc.err))
			continue
		}
		merged.Merge(oc.result)
	}
	return merged, nil
}
