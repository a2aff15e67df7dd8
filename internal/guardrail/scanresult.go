package guardrail

// ScanResult is the per-scanner (and, after merging, per-profile) outcome:
// booleans and scores keyed by category, plus an applied-input-types set and
// a free-form bucket for provider-specific categories the orchestrator does
// not know about.
type ScanResult struct {
	Flagged           map[string]bool
	Scores            map[string]float64
	AppliedInputTypes map[string][]string
	OtherCategories   map[string]float64
}

// NewScanResult returns a zero-valued, ready-to-merge ScanResult.
func NewScanResult() *ScanResult {
	return &ScanResult{
		Flagged:           map[string]bool{},
		Scores:            map[string]float64{},
		AppliedInputTypes: map[string][]string{},
		OtherCategories:   map[string]float64{},
	}
}

// Merge folds other into r: per-category boolean is logical OR, per-category
// score is the max, applied-input-types is the deduplicated union, and
// unrecognized "other" categories accumulate with max-score semantics.
// Merge is commutative and idempotent: merging a result with itself, or
// merging a∪b in either order, yields the same value.
func (r *ScanResult) Merge(other *ScanResult) {
	if other == nil {
		return
	}
	for k, v := range other.Flagged {
		r.Flagged[k] = r.Flagged[k] || v
	}
	for k, v := range other.Scores {
		if v > r.Scores[k] {
			r.Scores[k] = v
		}
	}
	for k, types := range other.AppliedInputTypes {
		r.AppliedInputTypes[k] = unionStrings(r.AppliedInputTypes[k], types)
	}
	for k, v := range other.OtherCategories {
		if v > r.OtherCategories[k] {
			r.OtherCategories[k] = v
		}
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// MaxScore returns the highest score across both named and "other" categories.
func (r *ScanResult) MaxScore() float64 {
	max := 0.0
	for _, v := range r.Scores {
		if v > max {
			max = v
		}
	}
	for _, v := range r.OtherCategories {
		if v > max {
			max = v
		}
	}
	return max
}

// AnyFlagged reports whether any category was flagged by any scanner.
func (r *ScanResult) AnyFlagged() bool {
	for _, v := range r.Flagged {
		if v {
			return true
		}
	}
	return false
}

// Decision evaluates the stage decision rule: flagged = any_category_flagged
// OR max_score > severity_threshold. The comparison is strict; equality
// allows the request.
func (r *ScanResult) Decision(severityThreshold float64) bool {
	return r.AnyFlagged() || r.MaxScore() > severityThreshold
}
