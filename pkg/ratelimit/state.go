// Package ratelimit implements Canvas API quota tracking and request gating.
// It monitors the X-Rate-Limit-Remaining and X-Request-Cost headers to keep
// an export from draining the per-token leaky bucket and hitting 403s.
package ratelimit

import (
	"time"
)

// Canvas rate limit headers.
const (
	// HeaderRateLimitRemaining carries the remaining quota in the
	// per-token bucket (a float, nominally starting at 700).
	HeaderRateLimitRemaining = "X-Rate-Limit-Remaining"

	// HeaderRequestCost carries the quota cost of the request just served.
	HeaderRequestCost = "X-Request-Cost"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining  = "alttab:rate_limit:remaining"
	RedisKeyLastCost   = "alttab:rate_limit:last_cost"
	RedisKeyLastUpdate = "alttab:rate_limit:last_update"
)

// QuotaFull is the nominal size of the Canvas quota bucket.
const QuotaFull = 700.0

// Thresholds for rate limit decisions.
const (
	// QuotaThresholdCritical blocks all requests when the remaining quota
	// falls below this value. Canvas starts rejecting requests at zero, so
	// stopping early leaves headroom for other consumers of the token.
	QuotaThresholdCritical = 50.0

	// QuotaThresholdWarning applies throttling when the remaining quota
	// falls below this value. This slows the request rate so the bucket
	// can refill.
	QuotaThresholdWarning = 150.0

	// QuotaThresholdHealthy indicates normal operation.
	// At or above this value no restrictions apply.
	QuotaThresholdHealthy = 300.0
)

// StaleAfter is how long observed quota state stays authoritative. The
// bucket refills continuously on the Canvas side, so state older than this
// is treated as recovered.
const StaleAfter = 60 * time.Second

// RateLimitState represents the last observed Canvas quota state.
// When a Redis-backed store is configured, this state is shared across all
// exports running against the same access token.
type RateLimitState struct {
	// Remaining is the quota left in the bucket.
	// Extracted from the X-Rate-Limit-Remaining header.
	Remaining float64 `json:"remaining"`

	// LastCost is the cost of the most recent request.
	// Extracted from the X-Request-Cost header (0 when not sent).
	LastCost float64 `json:"last_cost"`

	// LastUpdate is the timestamp when this state was last updated.
	// Used to detect stale state.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates whether the quota is in a healthy state.
	// True when Remaining >= QuotaThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked because the
// quota is nearly exhausted.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < QuotaThresholdCritical
}

// NeedsThrottling returns true if requests should be throttled due to the
// warning threshold.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < QuotaThresholdWarning && !s.NeedsCriticalBlock()
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= QuotaThresholdHealthy
}
