package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	canvasRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_rate_limit_remaining",
		Help: "Remaining quota in the Canvas per-token rate limit bucket",
	})

	canvasRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_rate_limit_blocks_total",
		Help: "Total number of requests blocked due to critical quota",
	})

	canvasRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_rate_limit_throttles_total",
		Help: "Total number of requests throttled due to low quota",
	})
)

// Tracker monitors the Canvas API quota and gates requests.
type Tracker struct {
	store  Store
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker. A nil store falls back to an
// in-process MemoryStore.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		logger: logger,
	}
}

// GetState retrieves the current quota state from the store.
// Returns a default healthy state if nothing has been observed yet.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	state, found, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate limit state: %w", err)
	}

	if !found {
		t.logger.Debug().Msg("No quota state observed yet, assuming full bucket")
		return &RateLimitState{
			Remaining:  QuotaFull,
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	return state, nil
}

// UpdateFromHeaders parses Canvas rate limit headers and updates the store.
// Responses without the headers (error pages, non-API hosts) are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainingStr := headers.Get(HeaderRateLimitRemaining)
	if remainingStr == "" {
		return nil
	}

	remaining, err := strconv.ParseFloat(remainingStr, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRateLimitRemaining, err)
	}

	// Cost header is informational and not sent on every response.
	var cost float64
	if costStr := headers.Get(HeaderRequestCost); costStr != "" {
		cost, err = strconv.ParseFloat(costStr, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRequestCost, err)
		}
	}

	state := &RateLimitState{
		Remaining:  remaining,
		LastCost:   cost,
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	// Update Prometheus metrics
	canvasRateLimitRemaining.Set(remaining)

	// Log state update at a severity matching the threshold
	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Float64("remaining", remaining).
			Float64("cost", cost).
			Msg("Canvas quota CRITICAL - requests will be blocked")
	} else if state.NeedsThrottling() {
		t.logger.Warn().
			Float64("remaining", remaining).
			Float64("cost", cost).
			Msg("Canvas quota WARNING - requests will be throttled")
	} else {
		t.logger.Debug().
			Float64("remaining", remaining).
			Float64("cost", cost).
			Bool("is_healthy", state.IsHealthy).
			Msg("Canvas quota state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the last
// observed quota state. Returns false if the request should be blocked.
// Returns true but may sleep for throttling when in the warning range.
// Stale state is treated as recovered, since the bucket refills on its own.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.IsStale(StaleAfter) {
		t.logger.Debug().
			Time("last_update", state.LastUpdate).
			Msg("Quota state stale, assuming bucket refilled")
		return true, nil
	}

	// Critical: Block all requests
	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Float64("remaining", state.Remaining).
			Msg("Canvas quota critical - blocking request")

		canvasRateLimitBlocksTotal.Inc()
		return false, nil
	}

	// Warning: Apply throttling (1 second sleep)
	if state.NeedsThrottling() {
		t.logger.Warn().
			Float64("remaining", state.Remaining).
			Msg("Canvas quota low - throttling request")

		canvasRateLimitThrottlesTotal.Inc()
		time.Sleep(1 * time.Second)
	}

	// Healthy: Allow request
	return true, nil
}
