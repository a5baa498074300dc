package scrape

import (
	"context"
	"sync"

	"github.com/fwojciec/reelscrape"
	"golang.org/x/time/rate"
)

var _ reelscrape.DomainLimiter = (*DomainLimiter)(nil)

// DefaultRPS is the per-domain request rate used by the CLI and server.
const DefaultRPS = 10

// DomainLimiter provides per-domain rate limiting using token buckets.
// Each domain gets its own limiter, so the content site and the hosts its
// download links point at are throttled independently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// per domain with the given burst. A non-positive rps disables limiting; a
// burst below 1 is treated as 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    max(burst, 1),
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.limit, d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
