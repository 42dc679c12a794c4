package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/threadmark"
	"golang.org/x/time/rate"
)

var _ threadmark.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces out navigations per domain using token buckets.
// Each domain gets its own limiter with a burst of 1.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
}

// NewDomainLimiter creates a DomainLimiter allowing one navigation per
// interval to each domain.
func NewDomainLimiter(interval time.Duration) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    interval,
	}
}

// Wait blocks until the domain's interval has passed since its last
// navigation. Returns an error if the context is canceled first.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(d.every), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
