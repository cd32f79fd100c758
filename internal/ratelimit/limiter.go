// Package ratelimit puts a ceiling on the rate of in-session API requests.
//
// Pacing between pages is the primary throttle; this limiter only matters
// when pacing is disabled or several operations share one session.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter blocks until a request for the given URL may proceed
type RateLimiter interface {
	// Wait blocks until a request for urlStr can proceed.
	// It returns ctx.Err() if ctx is done first.
	Wait(ctx context.Context, urlStr string) error
}

// HostLimiter keeps one token bucket per host
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    burst,
	}
}

// Unlimited returns a limiter that never blocks
func Unlimited() *HostLimiter {
	return NewHostLimiter(0, 1)
}

// Wait blocks until the request for urlStr can proceed
func (hl *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	host := hostOf(urlStr)
	if host == "" {
		// Unparseable URL, let the request fail on its own
		return nil
	}
	return hl.limiterFor(host).Wait(ctx)
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	limiter, ok := hl.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(hl.perHost, hl.burst)
		hl.limiters[host] = limiter
	}
	return limiter
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
