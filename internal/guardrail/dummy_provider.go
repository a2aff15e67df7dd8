package guardrail

import (
	"context"
	"regexp"
	"strings"
)

// DummyProvider implements Provider with regex keyword matching and a
// max-length probe, directly carrying over agentoven's RegexFilter and
// MaxLength evaluateOne cases (agentoven-agentoven/control-plane/internal/guardrails/guardrails.go)
// as the reference "provider" used in tests and local development.
type DummyProvider struct {
	// Keywords maps a probe name to the keywords that flag it, case-insensitive.
	Keywords map[string][]string
	MaxLen   int
}

func NewDummyProvider() *DummyProvider {
	return &DummyProvider{
		Keywords: map[string][]string{
			"hate":     {"hate", "kill", "slur"},
			"violence": {"bomb", "weapon"},
		},
		MaxLen: 8000,
	}
}

func (d *DummyProvider) Scan(_ context.Context, cfg ScannerConfig, text string) (*ScanResult, error) {
	result := NewScanResult()
	lower := strings.ToLower(text)

	enabled := func(probe string) bool {
		if len(cfg.EnabledProbes) == 0 {
			return true
		}
		for _, p := range cfg.EnabledProbes {
			if p == probe {
				return true
			}
		}
		return false
	}

	if enabled("keyword") {
		for category, words := range d.Keywords {
			for _, w := range words {
				if matched, _ := regexp.MatchString(`\b`+regexp.QuoteMeta(w)+`\b`, lower); matched {
					result.Flagged[category] = true
					result.Scores[category] = 0.9
					result.AppliedInputTypes[category] = []string{"text"}
					break
				}
			}
		}
	}

	if enabled("max_length") && d.MaxLen > 0 && len(text) > d.MaxLen {
		result.Flagged["length"] = true
		result.Scores["length"] = 1.0
		result.AppliedInputTypes["length"] = []string{"text"}
	}

	return result, nil
}
