package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// PageDelay is a Pacer that keeps at least a fixed delay between the end of
// one page and the start of the next, however long the page itself took.
type PageDelay struct {
	every rate.Limit
	lim   *rate.Limiter
}

// NewPageDelay creates a PageDelay. A zero delay never waits.
func NewPageDelay(d time.Duration) *PageDelay {
	return &PageDelay{every: rate.Every(d)}
}

// PageDone starts the delay for the next page
func (p *PageDelay) PageDone() {
	p.lim = rate.NewLimiter(p.every, 1)
	p.lim.Allow()
}

// Wait blocks until the delay started by the last PageDone has passed
func (p *PageDelay) Wait(ctx context.Context) error {
	if p.lim == nil {
		return ctx.Err()
	}
	return p.lim.Wait(ctx)
}
