package config

import (
	"os"
	"strings"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/utils"
)

// Account maps a dashboard label (usually a country) to a Google Ads
// customer id.
type Account struct {
	Label      string
	CustomerID string
}

// Config holds application configuration derived from environment variables.
type Config struct {
	// HTTP server
	Port          string
	AdminAPIToken string // Bearer token gating admin endpoints

	// Upstream HTTP behavior
	HTTPMaxRetries int
	HTTPRetryBase  time.Duration
	HTTPTimeout    time.Duration
	LogHTTPRetries bool

	// Google Ads API credentials and targeting
	AdsDeveloperToken  string
	AdsClientID        string
	AdsClientSecret    string
	AdsRefreshToken    string
	AdsLoginCustomerID string // MCC customer id used as login-customer-id
	AdsAPIBaseURL      string
	AdsAPIVersion      string
	Accounts           []Account // configured client accounts, in display order

	// Upstream rate limiting (Google Ads API)
	AdsRPS       float64 // requests per second to the ads API
	AdsBurstSize int

	// Response cache
	CacheHardCapacityBytes  int64
	CacheMaxEntryBytes      int64
	CacheDefaultTTL         time.Duration
	CacheFillRatio          float64
	CacheAggressiveFraction float64
	CacheKeyPrefix          string
	CacheSweepSchedule      string // "@every 5m" style, empty disables the sweep
	CacheBackendQuotaBytes  int64  // quota enforced by the persistent medium, 0 = none

	// Security settings
	RateLimitGlobal      float64
	RateLimitGlobalBurst int
	RateLimitPerIP       float64
	RateLimitPerIPBurst  int
	CORSAllowedOrigins   []string
	EnableRateLimit      bool

	// Observability settings
	LogLevel          string
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRate    float64
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	cached = &Config{
		Port:          strings.TrimSpace(os.Getenv("PORT")),
		AdminAPIToken: strings.TrimSpace(os.Getenv("ADMIN_API_TOKEN")),

		HTTPMaxRetries: utils.GetEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:  time.Duration(utils.GetEnvAsInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		HTTPTimeout:    time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 15000)) * time.Millisecond,
		LogHTTPRetries: utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),

		AdsDeveloperToken:  strings.TrimSpace(os.Getenv("ADS_DEVELOPER_TOKEN")),
		AdsClientID:        strings.TrimSpace(os.Getenv("ADS_CLIENT_ID")),
		AdsClientSecret:    strings.TrimSpace(os.Getenv("ADS_CLIENT_SECRET")),
		AdsRefreshToken:    strings.TrimSpace(os.Getenv("ADS_REFRESH_TOKEN")),
		AdsLoginCustomerID: utils.NormalizeCustomerID(os.Getenv("ADS_LOGIN_CUSTOMER_ID")),
		AdsAPIBaseURL:      strings.TrimSpace(os.Getenv("ADS_API_BASE_URL")),
		AdsAPIVersion:      strings.TrimSpace(os.Getenv("ADS_API_VERSION")),

		// Default to ~5 rps; the ads API tolerates short bursts.
		AdsRPS:       utils.GetEnvAsFloat("ADS_RPS", 5.0),
		AdsBurstSize: utils.GetEnvAsInt("ADS_BURST_SIZE", 2),

		CacheHardCapacityBytes:  utils.GetEnvAsInt64("CACHE_HARD_CAPACITY_BYTES", 8<<20),
		CacheMaxEntryBytes:      utils.GetEnvAsInt64("CACHE_MAX_ENTRY_BYTES", 2<<20),
		CacheDefaultTTL:         utils.GetEnvAsDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		CacheFillRatio:          utils.GetEnvAsFloat("CACHE_FILL_RATIO", 0.6),
		CacheAggressiveFraction: utils.GetEnvAsFloat("CACHE_AGGRESSIVE_FRACTION", 0.5),
		CacheKeyPrefix:          strings.TrimSpace(os.Getenv("CACHE_KEY_PREFIX")),
		CacheSweepSchedule:      strings.TrimSpace(os.Getenv("CACHE_SWEEP_SCHEDULE")),
		CacheBackendQuotaBytes:  utils.GetEnvAsInt64("CACHE_BACKEND_QUOTA_BYTES", 0),

		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),

		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.Port == "" {
		cached.Port = "8000"
	}
	if cached.AdsAPIBaseURL == "" {
		cached.AdsAPIBaseURL = "https://googleads.googleapis.com"
	}
	if cached.AdsAPIVersion == "" {
		cached.AdsAPIVersion = "v17"
	}
	if cached.CacheKeyPrefix == "" {
		cached.CacheKeyPrefix = "adsdash:"
	}
	if cached.CacheSweepSchedule == "" {
		cached.CacheSweepSchedule = "@every 5m"
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	cached.Accounts = parseAccounts(os.Getenv("ADS_ACCOUNTS"))

	// Parse CORS allowed origins
	corsOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if corsOrigins == "" {
		cached.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	} else {
		cached.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i := range cached.CORSAllowedOrigins {
			cached.CORSAllowedOrigins[i] = strings.TrimSpace(cached.CORSAllowedOrigins[i])
		}
		cached.CORSAllowedOrigins = utils.UniqueStrings(cached.CORSAllowedOrigins)
	}

	return cached
}

// parseAccounts reads "NL=5756290882,BE=5735473691" style account lists.
// Entries without a valid customer id are skipped.
func parseAccounts(raw string) []Account {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var accounts []Account
	var seen []string
	for _, pair := range strings.Split(raw, ",") {
		label, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		id = utils.NormalizeCustomerID(id)
		if label = strings.TrimSpace(label); label == "" || !utils.IsValidCustomerID(id) {
			continue
		}
		// First entry wins when the same account is listed twice.
		if utils.ContainsString(seen, id) {
			continue
		}
		seen = append(seen, id)
		accounts = append(accounts, Account{Label: label, CustomerID: id})
	}
	return accounts
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
