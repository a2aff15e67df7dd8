// Package guardrail implements the multi-stage content-safety orchestrator:
// a named profile lists provider-backed scanners with an execution mode,
// failure mode, and severity threshold.
package guardrail

// Direction is the guard direction a scanner (or an entire profile) applies to.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
	DirectionBoth   Direction = "both"
)

// ExecutionMode controls whether scanners in a profile run concurrently or
// in declared order.
type ExecutionMode string

const (
	ExecutionParallel   ExecutionMode = "parallel"
	ExecutionSequential ExecutionMode = "sequential"
)

// FailureMode controls whether a provider error aborts the profile or is
// tolerated.
type FailureMode string

const (
	FailFast   FailureMode = "fail_fast"
	BestEffort FailureMode = "best_effort"
)

// ScannerConfig names one scanner: a provider type, the probes it runs, and
// per-probe rule subsets (empty meaning "all rules").
type ScannerConfig struct {
	ProviderType  string
	EnabledProbes []string
	EnabledRules  map[string][]string
	ProviderConfig map[string]any
	Direction     Direction
}

// AppliesToStage reports whether this scanner should run for the given
// request direction.
func (s ScannerConfig) AppliesToStage(stage Direction) bool {
	return s.Direction == DirectionBoth || s.Direction == stage
}

// Profile is a named, ordered list of scanners with a merge/decision policy.
type Profile struct {
	ID                string
	Scanners          []ScannerConfig
	ExecutionMode     ExecutionMode
	FailureMode       FailureMode
	SeverityThreshold float64
	Directions        map[Direction]struct{}
}

// AppliesToDirection reports whether this profile declares guards for stage.
func (p *Profile) AppliesToDirection(stage Direction) bool {
	if p == nil {
		return false
	}
	_, ok := p.Directions[stage]
	return ok
}
