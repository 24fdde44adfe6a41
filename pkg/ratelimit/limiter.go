package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for request pacing.
var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "movie_search_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting for the rate limiter",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	rateLimitCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movie_search_rate_limit_cooldowns_total",
		Help: "Total number of cooldowns started by 429 responses",
	})
)

// Config holds limiter configuration.
type Config struct {
	// RequestsPerSecond is the steady request rate; 0 disables pacing.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once (default 1).
	Burst int
}

// Limiter gates outgoing requests.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu            sync.Mutex
	cooldownUntil time.Time
}

// New creates a limiter.
func New(cfg Config, logger zerolog.Logger) *Limiter {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Wait blocks until a request may be sent: first through any cooldown, then
// through the token bucket. It returns the context's error if cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	defer func() {
		rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	if pause := l.State().TimeUntilResume(); pause > 0 {
		l.logger.Debug().Dur("wait_duration", pause).Msg("Waiting for rate limit cooldown")

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limit cooldown: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// UpdateFromResponse starts a cooldown when the server answered 429.
// The pause comes from Retry-After, else DefaultCooldown, capped at MaxCooldown.
func (l *Limiter) UpdateFromResponse(statusCode int, headers http.Header) {
	if statusCode != http.StatusTooManyRequests {
		return
	}

	now := time.Now()
	pause, ok := ParseRetryAfter(headers, now)
	if !ok {
		pause = DefaultCooldown
	}
	if pause > MaxCooldown {
		pause = MaxCooldown
	}

	l.mu.Lock()
	until := now.Add(pause)
	if until.After(l.cooldownUntil) {
		l.cooldownUntil = until
	}
	l.mu.Unlock()

	rateLimitCooldownsTotal.Inc()
	l.logger.Warn().
		Dur("cooldown", pause).
		Time("resume_at", until).
		Msg("Search service rate limited - pausing requests")
}

// State returns the current limiter state.
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	rps := float64(l.limiter.Limit())
	if l.limiter.Limit() == rate.Inf {
		rps = 0
	}
	return State{
		RequestsPerSecond: rps,
		Burst:             l.limiter.Burst(),
		CooldownUntil:     l.cooldownUntil,
	}
}
