package handlers

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Fantasim/hdada/internal/config"
)

// RateLimiter is a token bucket shared by all callers of an endpoint.
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewRateLimiter allows rps requests per second with the given burst.
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	slog.Debug("rate limiter created",
		"endpoint", name,
		"rps", rps,
		"burst", burst,
	)
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Allow takes a token or returns a transient ErrRateLimited carrying the
// delay until the next token.
func (rl *RateLimiter) Allow() error {
	if rl == nil {
		return nil
	}

	now := time.Now()
	res := rl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return config.NewTransientError(config.ErrRateLimited)
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	res.CancelAt(now)

	slog.Warn("rate limit exceeded",
		"endpoint", rl.name,
		"retryAfter", delay.Round(time.Millisecond),
	)
	return config.NewTransientErrorWithRetry(config.ErrRateLimited, delay)
}
