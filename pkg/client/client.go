// Package client provides the core HTTP client for rate-limited data
// APIs: client-side throttling, retry with exponential backoff,
// Retry-After cooperation on HTTP 429, and response caching.
package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tabular-dev/data-api-connector/pkg/cache"
	"github.com/tabular-dev/data-api-connector/pkg/ratelimit"
)

// Prometheus metrics for request execution.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_requests_total",
		Help: "Total requests by endpoint and outcome",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connector_request_duration_seconds",
		Help:    "Logical request duration in seconds by endpoint, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_errors_total",
		Help: "Total errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_retries_total",
		Help: "Total retry attempts by reason",
	}, []string{"reason"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connector_retry_backoff_seconds",
		Help:    "Delay before a retry attempt by reason",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"reason"})

	retriesExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connector_retries_exhausted_total",
		Help: "Total number of logical requests that ran out of attempts",
	})
)

// Client executes requests against one data API provider. One Client per
// connector instance; the rate limit window is not shared across
// instances unless a shared Limiter is configured.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	store      *cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the provider API (required).
	BaseURL string

	// APIKey is sent as a bearer token when present.
	APIKey string

	// UserAgent header for all requests.
	UserAgent string

	// Rate limiting: at most MaxRequests dispatches per Window.
	MaxRequests int
	Window      time.Duration

	// Limiter overrides the per-client window, e.g. with a Redis-backed
	// window shared across processes. When set, MaxRequests and Window
	// are ignored.
	Limiter ratelimit.Limiter

	// Retry
	MaxRetries     int           // additional attempts after the first
	InitialBackoff time.Duration // doubles per attempt

	// Timeout per HTTP dispatch.
	Timeout time.Duration

	// CacheResponses enables the in-memory GET response cache.
	CacheResponses bool
}

// DefaultConfig returns a safe default configuration for a provider.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      "data-api-connector/1.0.0",
		MaxRequests:    100,
		Window:         time.Minute,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		Timeout:        30 * time.Second,
		CacheResponses: true,
	}
}

// New creates a new client for one provider.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(cfg.MaxRequests, cfg.Window)
	}

	var store *cache.Store
	if cfg.CacheResponses {
		store = cache.NewStore()
	}

	logger := log.With().
		Str("component", "client").
		Str("base_url", cfg.BaseURL).
		Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		store:   store,
		config:  cfg,
		logger:  logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the response cache store, nil when caching is disabled.
func (c *Client) Cache() *cache.Store {
	return c.store
}
