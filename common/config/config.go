package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/opengw/llmgateway/common/env"
)

var (
	// ServerPort is the listen port used when the gateway config document sets no bind address.
	ServerPort = strings.TrimSpace(env.String("PORT", "3000"))
	// GinMode allows forcing Gin into release mode without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// ShutdownTimeoutSec bounds how long the drain phase waits for in-flight
	// requests and background batchers before the process exits.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)

	// RedisConnString is the Redis connection string backing the shared rate
	// limit counters and the config-reload pub/sub channel. Empty disables
	// both and the gateway falls back to local-only rate limiting.
	RedisConnString = strings.TrimSpace(env.String("REDIS_CONN_STRING", ""))
	// RedisMasterName enables Redis sentinel discovery when provided.
	RedisMasterName = strings.TrimSpace(env.String("REDIS_MASTER_NAME", ""))
	// RedisPassword supplies the Redis authentication password when required.
	RedisPassword = env.String("REDIS_PASSWORD", "")

	// SQLDSN is the primary database DSN for the analytics/inference stores;
	// empty selects SQLite at SQLitePath.
	SQLDSN = strings.TrimSpace(env.String("SQL_DSN", ""))
	// SQLitePath is the SQLite file used when SQLDSN is empty.
	SQLitePath = env.String("SQLITE_PATH", "gateway.db")
	// SQLMaxIdleConns controls the store's idle connection pool size.
	SQLMaxIdleConns = env.Int("SQL_MAX_IDLE_CONNS", 20)
	// SQLMaxOpenConns controls the store's maximum open connections.
	SQLMaxOpenConns = env.Int("SQL_MAX_OPEN_CONNS", 200)
	// SQLMaxLifetimeSeconds sets how long pooled connections live before recycling.
	SQLMaxLifetimeSeconds = env.Int("SQL_MAX_LIFETIME", 300)

	// GatewayConfigPath points at the YAML file describing models, credentials,
	// guardrail profiles, and rate-limit defaults (see internal/gwconfig).
	GatewayConfigPath = env.String("GATEWAY_CONFIG_PATH", "gateway.yaml")
	// ConfigReloadChannel is the Redis pub/sub channel on which whole gateway
	// config documents are published; every subscribed instance applies each
	// document it receives.
	ConfigReloadChannel = env.String("CONFIG_RELOAD_CHANNEL", "gateway:config:reload")
	// ConfigReloadPollInterval is not read by any component: without Redis no
	// reload listener runs and the document loaded at boot stays in effect.
	ConfigReloadPollInterval = time.Duration(env.Int("CONFIG_RELOAD_POLL_SECONDS", 30)) * time.Second

	// GlobalAPIRateLimitNum and GlobalAPIRateLimitDuration (seconds) are not
	// read by the rate limiter; ratelimit.DefaultConfig carries its own
	// 600-requests-per-minute default.
	GlobalAPIRateLimitNum = env.Int("GLOBAL_API_RATE_LIMIT", 600)
	GlobalAPIRateLimitDuration int64 = 60
	// RateLimitKeyExpirationDuration is how long an idle (model, key) local
	// token bucket is kept before the rate limiter drops it. Shared Redis
	// counter keys expire after their window length instead.
	RateLimitKeyExpirationDuration = 20 * time.Minute
	// LocalAllowanceDefault is the probability, absent a per-model override,
	// that a request bypasses the shared Redis counter when the local
	// token-bucket layer already has confirmed quota.
	LocalAllowanceDefault = env.Float64("LOCAL_ALLOWANCE_DEFAULT", 0.1)

	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// AnalyticsBatchSize is the number of analytics records buffered before a
	// forced flush, independent of AnalyticsBatchInterval.
	AnalyticsBatchSize = env.Int("ANALYTICS_BATCH_SIZE", 200)
	// AnalyticsBatchInterval is the maximum time a partially-full analytics
	// batch waits before being flushed.
	AnalyticsBatchInterval = time.Duration(env.Int("ANALYTICS_BATCH_INTERVAL_MS", 2000)) * time.Millisecond
	// AnalyticsQueueCapacity bounds the in-memory channel feeding the
	// analytics batcher; once full, new records are dropped and counted.
	AnalyticsQueueCapacity = env.Int("ANALYTICS_QUEUE_CAPACITY", 4096)

	// InferenceBatchSize mirrors AnalyticsBatchSize for the inference log store.
	InferenceBatchSize = env.Int("INFERENCE_BATCH_SIZE", 200)
	// InferenceBatchInterval mirrors AnalyticsBatchInterval for the inference log store.
	InferenceBatchInterval = time.Duration(env.Int("INFERENCE_BATCH_INTERVAL_MS", 2000)) * time.Millisecond
	// InferenceQueueCapacity mirrors AnalyticsQueueCapacity for the inference log store.
	InferenceQueueCapacity = env.Int("INFERENCE_QUEUE_CAPACITY", 4096)

	// OTLPProxyUpstream is the collector endpoint the OTLP proxy forwards to,
	// when observability passthrough is enabled.
	OTLPProxyUpstream = strings.TrimSpace(env.String("OTLP_PROXY_UPSTREAM", ""))

	// GeoIPDatabasePath is not read by any component; cmd/gateway wires a
	// GeoLookup that returns an empty country for every client IP.
	GeoIPDatabasePath = strings.TrimSpace(env.String("GEOIP_DATABASE_PATH", ""))

	// TrustedProxySubnets is not read by any component; client attribution
	// accepts forwarded client-IP headers from any peer.
	TrustedProxySubnets = strings.TrimSpace(env.String("TRUSTED_PROXY_SUBNETS", ""))

	// LogPushAPI defines the webhook endpoint for escalated log alerts (error level).
	LogPushAPI = env.String("LOG_PUSH_API", "")
	// LogPushType labels outbound log alerts so downstream processors can route them.
	LogPushType = env.String("LOG_PUSH_TYPE", "")
	// LogPushToken authenticates outbound log alert requests.
	LogPushToken = env.String("LOG_PUSH_TOKEN", "")

	// SessionSecretEnvValue keeps the raw SESSION_SECRET input. SessionSecret
	// is derived from it at init: the input itself when it is 16, 24 or 32
	// bytes long, base64 of its SHA-256 digest for any other length, and
	// base64 of 32 random bytes when it is empty. No other package reads
	// either value.
	SessionSecretEnvValue = strings.TrimSpace(env.String("SESSION_SECRET", ""))
	SessionSecret         = SessionSecretEnvValue
)

func init() {
	if SessionSecretEnvValue == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate random session secret: " + err.Error())
		}
		SessionSecret = base64.StdEncoding.EncodeToString(key)
	} else if !slices.Contains([]int{16, 24, 32}, len(SessionSecretEnvValue)) {
		hashed := sha256.Sum256([]byte(SessionSecretEnvValue))
		SessionSecret = base64.StdEncoding.EncodeToString(hashed[:32])
	}
}

var (
	// metricsEnabled mirrors EnablePrometheusMetrics but can be toggled at
	// runtime (e.g. by an admin endpoint) without touching the env-derived default.
	metricsEnabled atomic.Bool
)

func init() {
	metricsEnabled.Store(EnablePrometheusMetrics)
}

func IsMetricsEnabled() bool      { return metricsEnabled.Load() }
func SetMetricsEnabled(v bool)    { metricsEnabled.Store(v) }
