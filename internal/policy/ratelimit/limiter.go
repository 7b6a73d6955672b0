// Package ratelimit spaces out the page fetches of a crawl run.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerSecond caps the fetch rate of the run; zero or less disables limiting.
	RequestsPerSecond float64
	// Burst is the number of requests allowed back to back. Defaults to 1.
	Burst int
}

// Limiter is a single token bucket shared by every fetch of a run. A crawl
// follows one catalog page by page, so one bucket covers every request even
// when a next link crosses to another host.
type Limiter struct {
	bucket *rate.Limiter
}

// New creates a Limiter from cfg.
func New(cfg Config) *Limiter {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(limit, burst)}
}

// Wait blocks until the next fetch of rawURL may start or ctx is done.
// Delays are recorded against the URL's host.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	start := time.Now()
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(hostOf(rawURL), waited)
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
