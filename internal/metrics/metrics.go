package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream (Google Ads API) metrics
	UpstreamHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_http_requests_total",
			Help: "Total number of HTTP requests made to the ads API",
		},
		[]string{"status"}, // status: success, retry, error
	)

	UpstreamHTTPRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_http_retries_total",
			Help: "Total number of HTTP request retries",
		},
	)

	UpstreamRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_rate_limit_waits_total",
			Help: "Total number of times a request waited for the upstream rate limit",
		},
	)

	UpstreamRetryAfterWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_retry_after_wait_seconds",
			Help:    "Duration of Retry-After waits in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	UpstreamSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_search_duration_seconds",
			Help:    "Duration of ads API search calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"report"}, // report: accounts, campaigns, summary
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// Response cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"endpoint"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"endpoint"},
	)

	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_size_bytes",
			Help: "Current size of the response cache in bytes",
		},
	)

	CacheItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_items",
			Help: "Current number of entries in the response cache",
		},
	)

	CacheEvictions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_evictions_total",
			Help: "Total entries removed from the response cache by capacity pressure",
		},
	)

	CacheExpirations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_expirations_total",
			Help: "Total entries removed from the response cache after TTL elapsed",
		},
	)

	CacheRejections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_rejections_total",
			Help: "Total cache writes refused admission",
		},
	)

	// Warm prefetch metrics
	WarmFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warm_fetches_total",
			Help: "Total number of cache warm prefetches",
		},
		[]string{"status"}, // status: success, failed
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)
