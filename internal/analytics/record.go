// Package analytics defines the per-request AnalyticsRecord and its
// storage. Exactly one record is produced per request, success or
// failure; it is mutated in place under a per-request lock, then queued to
// a batcher on egress.
package analytics

import (
	"sync"
	"time"
)

// Record is the per-request analytics row. Fields are filled in
// incrementally across the middleware chain; Mu guards in-place writes but
// is never held across a suspension point.
type Record struct {
	Mu sync.Mutex `gorm:"-" json:"-"`

	ID          string `gorm:"primaryKey" json:"id"`
	InferenceID string `json:"inference_id"`

	ClientIP  string `json:"client_ip"`
	Country   string `json:"country"`
	UserAgent string `json:"user_agent"`

	Method string `json:"method"`
	Path   string `json:"path"`

	RequestBytes  int64 `json:"request_bytes"`
	ResponseBytes int64 `json:"response_bytes"`

	RequestTS  time.Time `json:"request_ts"`
	ResponseTS time.Time `json:"response_ts"`
	GatewayMS  int64     `json:"gateway_ms"`
	TotalMS    int64     `json:"total_ms"`
	ModelMS    int64     `json:"model_ms"`

	ModelName    string `json:"model_name"`
	ProviderType string `json:"provider_type"`

	StatusCode int    `json:"status_code"`
	Blocked    bool   `json:"blocked"`
	BlockRule  string `json:"block_rule,omitempty"`

	Tags map[string]string `gorm:"serializer:json" json:"tags,omitempty"`
}

// TableName stores analytics rows in analytics_records, apart from the
// inference records table.
func (Record) TableName() string { return "analytics_records" }

// SetTiming derives GatewayMS such that gateway_ms + model_ms stays within
// a small epsilon of total_ms, with gateway_ms = 0 when model_ms is
// unknown.
func (r *Record) SetTiming(totalMS, modelMS int64) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.TotalMS = totalMS
	r.ModelMS = modelMS
	if modelMS > 0 {
		r.GatewayMS = totalMS - modelMS
	} else {
		r.GatewayMS = 0
	}
}

// Snapshot returns a shallow copy safe to hand to the batcher without
// holding Mu for the duration of the channel send.
func (r *Record) Snapshot() Record {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	cp := *r
	cp.Mu = sync.Mutex{}
	return cp
}
