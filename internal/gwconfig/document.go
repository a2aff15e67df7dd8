// Package gwconfig decodes the declarative gateway configuration document
// — bind address, observability toggles, auth toggle and initial keys,
// the model table, guardrail profiles, rate-limit defaults, OTLP
// collector URL — and reloads it push-driven from an external config bus
// (a Redis Pub/Sub-backed reloader; see DESIGN.md).
package gwconfig

import (
	"gopkg.in/yaml.v3"

	"github.com/opengw/llmgateway/internal/auth"
	"github.com/opengw/llmgateway/internal/guardrail"
	"github.com/opengw/llmgateway/internal/model"
	"github.com/opengw/llmgateway/internal/ratelimit"
)

// Document is the top-level decoded configuration.
type Document struct {
	BindAddress string `yaml:"bind_address"`

	Observability struct {
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		OTLPCollector  string `yaml:"otlp_collector_url"`
	} `yaml:"observability"`

	Auth struct {
		Enabled bool              `yaml:"enabled"`
		Keys    map[string]string `yaml:"keys"`
	} `yaml:"auth"`

	Models []ModelEntryDoc `yaml:"models"`

	GuardrailProfiles []GuardrailProfileDoc `yaml:"guardrail_profiles"`

	RateLimitDefaults RateLimitDoc `yaml:"rate_limit_defaults"`
}

// ModelEntryDoc mirrors model.Entry in a YAML-friendly shape.
type ModelEntryDoc struct {
	Name             string              `yaml:"name"`
	Capabilities     []string            `yaml:"capabilities"`
	Providers        []ProviderHandleDoc `yaml:"providers"`
	FallbackModels   []string            `yaml:"fallback_models"`
	RetryNumRetries  int                 `yaml:"retry_num_retries"`
	RetryBaseDelayMS int                 `yaml:"retry_base_delay_ms"`
	RetryMaxDelayS   int                 `yaml:"retry_max_delay_s"`
	RateLimitProfile string              `yaml:"rate_limit_profile"`
	GuardrailProfile string              `yaml:"guardrail_profile"`
}

// ProviderHandleDoc mirrors model.ProviderHandle.
type ProviderHandleDoc struct {
	Type           string            `yaml:"type"`
	Config         map[string]string `yaml:"config"`
	CredentialEnv  string            `yaml:"credential_env"`
	CredentialKey  string            `yaml:"credential_store_key"`
	CredentialFlat string            `yaml:"credential_static"`
}

// GuardrailProfileDoc mirrors guardrail.Profile.
type GuardrailProfileDoc struct {
	ID                string             `yaml:"id"`
	ExecutionMode     string             `yaml:"execution_mode"`
	FailureMode       string             `yaml:"failure_mode"`
	SeverityThreshold float64            `yaml:"severity_threshold"`
	Directions        []string           `yaml:"directions"`
	Scanners          []ScannerConfigDoc `yaml:"scanners"`
}

// ScannerConfigDoc mirrors guardrail.ScannerConfig.
type ScannerConfigDoc struct {
	ProviderType  string            `yaml:"provider_type"`
	EnabledProbes []string          `yaml:"enabled_probes"`
	EnabledRules  map[string][]string `yaml:"enabled_rules"`
	Direction     string            `yaml:"direction"`
}

// RateLimitDoc mirrors ratelimit.Config.
type RateLimitDoc struct {
	Algorithm         string  `yaml:"algorithm"`
	RequestsPerSecond int64   `yaml:"requests_per_second"`
	RequestsPerMinute int64   `yaml:"requests_per_minute"`
	RequestsPerHour   int64   `yaml:"requests_per_hour"`
	BurstSize         int64   `yaml:"burst_size"`
	CacheTTLMS        int64   `yaml:"cache_ttl_ms"`
	RedisTimeoutMS    int64   `yaml:"redis_timeout_ms"`
	LocalAllowance    float64 `yaml:"local_allowance"`
	SyncIntervalMS    int64   `yaml:"sync_interval_ms"`
}

// Parse decodes a YAML document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ToModelTable converts the decoded model entries into a model.Table,
// validating the fallback graph is acyclic (model.NewTable refuses to
// start otherwise).
func (d *Document) ToModelTable() (*model.Table, error) {
	entries := make([]*model.Entry, 0, len(d.Models))
	for _, m := range d.Models {
		caps := make(map[model.Capability]struct{}, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps[model.Capability(c)] = struct{}{}
		}
		providers := make([]model.ProviderHandle, 0, len(m.Providers))
		for _, p := range m.Providers {
			providers = append(providers, model.ProviderHandle{
				Type:   p.Type,
				Config: p.Config,
				Credential: model.CredentialLocation{
					Env:      p.CredentialEnv,
					StoreKey: p.CredentialKey,
					Static:   p.CredentialFlat,
				},
			})
		}
		entries = append(entries, &model.Entry{
			Name:             m.Name,
			Providers:        providers,
			Capabilities:     caps,
			FallbackModels:   m.FallbackModels,
			Retry:            model.RetryPolicy{NumRetries: m.RetryNumRetries, BaseDelayMS: m.RetryBaseDelayMS, MaxDelayS: m.RetryMaxDelayS},
			RateLimitProfile: m.RateLimitProfile,
			GuardrailProfile: m.GuardrailProfile,
		})
	}
	return model.NewTable(entries)
}

// ToGuardrailProfiles converts the decoded profiles into guardrail.Profile
// values, keyed by id.
func (d *Document) ToGuardrailProfiles() map[string]*guardrail.Profile {
	profiles := make(map[string]*guardrail.Profile, len(d.GuardrailProfiles))
	for _, p := range d.GuardrailProfiles {
		directions := make(map[guardrail.Direction]struct{}, len(p.Directions))
		for _, dir := range p.Directions {
			directions[guardrail.Direction(dir)] = struct{}{}
		}
		scanners := make([]guardrail.ScannerConfig, 0, len(p.Scanners))
		for _, s := range p.Scanners {
			scanners = append(scanners, guardrail.ScannerConfig{
				ProviderType:  s.ProviderType,
				EnabledProbes: s.EnabledProbes,
				EnabledRules:  s.EnabledRules,
				Direction:     guardrail.Direction(s.Direction),
			})
		}
		profiles[p.ID] = &guardrail.Profile{
			ID:                p.ID,
			Scanners:          scanners,
			ExecutionMode:     guardrail.ExecutionMode(p.ExecutionMode),
			FailureMode:       guardrail.FailureMode(p.FailureMode),
			SeverityThreshold: p.SeverityThreshold,
			Directions:        directions,
		}
	}
	return profiles
}

// ToAPIConfigs converts the flat auth.keys map into per-key APIConfig
// stubs with no model bindings — a real deployment's keys carry their
// bindings from a separate source; this covers the toggle+initial-keys
// bootstrap case only.
func (d *Document) ToAPIConfigs() map[string]*auth.APIConfig {
	cfgs := make(map[string]*auth.APIConfig, len(d.Auth.Keys))
	for key := range d.Auth.Keys {
		cfgs[key] = &auth.APIConfig{Models: map[string]auth.ModelBinding{}}
	}
	return cfgs
}

// ToRateLimitConfig converts the decoded defaults into a ratelimit.Config.
func (d *Document) ToRateLimitConfig() ratelimit.Config {
	def := ratelimit.DefaultConfig()
	r := d.RateLimitDefaults
	if r.Algorithm != "" {
		def.Algorithm = ratelimit.Algorithm(r.Algorithm)
	}
	if r.RequestsPerSecond > 0 {
		def.RequestsPerSecond = r.RequestsPerSecond
	}
	if r.RequestsPerMinute > 0 {
		def.RequestsPerMinute = r.RequestsPerMinute
	}
	if r.RequestsPerHour > 0 {
		def.RequestsPerHour = r.RequestsPerHour
	}
	if r.BurstSize > 0 {
		def.BurstSize = r.BurstSize
	}
	if r.CacheTTLMS > 0 {
		def.CacheTTL = msToDuration(r.CacheTTLMS)
	}
	if r.RedisTimeoutMS > 0 {
		def.RedisTimeout = msToDuration(r.RedisTimeoutMS)
	}
	if r.LocalAllowance > 0 {
		def.LocalAllowance = r.LocalAllowance
	}
	if r.SyncIntervalMS > 0 {
		def.SyncInterval = msToDuration(r.SyncIntervalMS)
	}
	return def
}
