// Package canvas provides the Canvas LMS REST client with rate limiting,
// retries, and error classification.
package canvas

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/primusr/alttab/pkg/pagination"
	"github.com/primusr/alttab/pkg/ratelimit"
)

// Prometheus metrics for Canvas client operations.
var (
	canvasRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_requests_total",
		Help: "Total Canvas API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	canvasRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "canvas_request_duration_seconds",
		Help:    "Canvas API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	canvasErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_errors_total",
		Help: "Total Canvas API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is the Canvas API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	config     Config
	baseURL    *url.URL
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Canvas installation, e.g. "https://school.instructure.com".
	BaseURL string

	// Token is the Canvas API access token, sent as a bearer header.
	Token string

	// User-Agent header sent with every request.
	UserAgent string

	// PerPage is the page size for paginated collections.
	PerPage int

	// Timeout per HTTP request.
	Timeout time.Duration

	// Client-side pacing
	RequestsPerSecond float64 // Sustained request rate
	Burst             int     // Short burst allowance

	// Tracker gates requests on the last observed Canvas quota state.
	// Nil means an in-process tracker with no shared state.
	Tracker *ratelimit.Tracker
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL:           baseURL,
		Token:             token,
		UserAgent:         "alttab/1.0",
		PerPage:           pagination.DefaultPerPage,
		Timeout:           20 * time.Second,
		RequestsPerSecond: 8,
		Burst:             8,
	}
}

// New creates a new Canvas client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q is not an absolute URL", cfg.BaseURL)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("access token is required")
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "alttab/1.0"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = pagination.DefaultPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	logger := log.With().Str("component", "canvas-client").Logger()

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = ratelimit.NewTracker(nil, logger)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		tracker: tracker,
		config:  cfg,
		baseURL: base,
		logger:  logger,
	}, nil
}

// Get performs a GET request against the Canvas API with pacing, quota
// gating, retries, and error classification. rawurl may be a path relative
// to the configured base URL or an absolute URL (as taken from a Link
// header); query parameters are merged into the URL. The whole response
// body is read before returning.
//
// Get implements pagination.Source.
func (c *Client) Get(ctx context.Context, rawurl string, query url.Values) (*pagination.Response, error) {
	u, err := c.resolveURL(rawurl, query)
	if err != nil {
		return nil, fmt.Errorf("build request URL: %w", err)
	}
	endpoint := endpointLabel(u.Path)

	// Start request timing
	startTime := time.Now()
	defer func() {
		canvasRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Client-side pacing
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	// Step 2: Quota gate from observed headers
	allowed, err := c.tracker.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by quota tracker")
		canvasRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("%w: canvas quota critical", ErrRateLimited)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", u.String()).
		Msg("Executing Canvas request")

	// Step 3: Execute with retry logic
	var result *pagination.Response
	var errClass ErrorClass

	retryErr := retryWithBackoff(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if reqErr != nil {
			errClass = ErrorClassClient
			return fmt.Errorf("create request: %w", reqErr)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, doErr := c.httpClient.Do(req)

		// Handle network errors
		if doErr != nil {
			c.logger.Warn().Err(doErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errClass = c.classifyError(nil, doErr)
			canvasErrorsTotal.WithLabelValues(string(errClass)).Inc()
			canvasRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return doErr
		}

		// Update quota state from headers
		if err := c.tracker.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		// Handle HTTP errors
		if resp.StatusCode >= 400 {
			errClass = c.classifyError(resp, nil)
			canvasErrorsTotal.WithLabelValues(string(errClass)).Inc()
			canvasRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Canvas request error")

			resp.Body.Close()
			return &APIError{
				StatusCode: resp.StatusCode,
				Class:      errClass,
				Message:    resp.Status,
			}
		}

		// Success: drain the body so retries never hand back a half-read response
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			errClass = ErrorClassNetwork
			canvasErrorsTotal.WithLabelValues(string(errClass)).Inc()
			return fmt.Errorf("read response body: %w", readErr)
		}

		canvasRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		result = &pagination.Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
		}
		return nil
	}, func(error) ErrorClass {
		// Classify error dynamically for retry logic
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return result, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// resolveURL turns rawurl into an absolute request URL and merges the
// additional query parameters into it.
func (c *Client) resolveURL(rawurl string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		u = c.baseURL.ResolveReference(u)
	}

	if len(query) > 0 {
		merged := u.Query()
		for key, vals := range query {
			for _, v := range vals {
				merged.Add(key, v)
			}
		}
		u.RawQuery = merged.Encode()
	}

	return u, nil
}

// endpointLabel maps a request path to a bounded metric label.
func endpointLabel(path string) string {
	path = strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(path, "/enrollments"):
		return "enrollments"
	case strings.HasSuffix(path, "/events"):
		return "submission_events"
	case strings.HasSuffix(path, "/submissions"):
		return "quiz_submissions"
	default:
		return "other"
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
