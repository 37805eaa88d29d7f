package chainclient

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/verus-tools/staking-rewards-indexer/internal/config"
)

// rateLimiter enforces the daemon's request budgets across four windows at
// once: a burst token bucket refilled at the per-second rate, plus rolling
// per-minute and per-hour allowances. Wait blocks until every window has a
// token available; it never drops a scheduled request.
type rateLimiter struct {
	second *rate.Limiter
	minute *rate.Limiter
	hour   *rate.Limiter

	waited atomic.Int64
	total  atomic.Int64
}

func newRateLimiter(cfg *config.ChainConfig) *rateLimiter {
	return &rateLimiter{
		second: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		minute: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
		hour:   rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerHour)/3600.0), cfg.RequestsPerHour),
	}
}

// Wait blocks until all budget windows admit one request or ctx is canceled.
// The windows are acquired from the longest to the shortest so a long wait on
// the hour window does not burn second-window tokens.
func (l *rateLimiter) Wait(ctx context.Context) error {
	start := time.Now()

	if err := l.hour.Wait(ctx); err != nil {
		return err
	}
	if err := l.minute.Wait(ctx); err != nil {
		return err
	}
	if err := l.second.Wait(ctx); err != nil {
		return err
	}

	l.total.Add(1)
	l.waited.Add(int64(time.Since(start)))
	return nil
}

// Usage returns the total number of admitted requests and the cumulative time
// spent waiting for budget.
func (l *rateLimiter) Usage() (requests int64, waited time.Duration) {
	return l.total.Load(), time.Duration(l.waited.Load())
}
