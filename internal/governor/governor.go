// Package governor spaces outbound requests per provider class so that
// parallel dispatch never hits one provider faster than the minimum delay.
package governor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinDelay is the spacing between two requests to the same class.
const DefaultMinDelay = 500 * time.Millisecond

// Governor holds one single-token limiter per provider class.
type Governor struct {
	minDelay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a governor. A non-positive minDelay disables spacing.
func New(minDelay time.Duration) *Governor {
	return &Governor{
		minDelay: minDelay,
		limiters: make(map[string]*rate.Limiter),
	}
}

// MinDelay returns the configured spacing.
func (g *Governor) MinDelay() time.Duration {
	if g == nil {
		return 0
	}
	return g.minDelay
}

func (g *Governor) limiter(class string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	lim, ok := g.limiters[class]
	if !ok {
		limit := rate.Inf
		if g.minDelay > 0 {
			limit = rate.Every(g.minDelay)
		}
		lim = rate.NewLimiter(limit, 1)
		g.limiters[class] = lim
	}
	return lim
}

// Wait blocks until a request to class is permitted or ctx is done.
// A nil governor never blocks.
func (g *Governor) Wait(ctx context.Context, class string) error {
	if g == nil {
		return ctx.Err()
	}
	if err := g.limiter(class).Wait(ctx); err != nil {
		return fmt.Errorf("rate governor (%s): %w", class, err)
	}
	return nil
}

// ReserveAt takes the next slot for class as of now and returns how long the
// caller must wait before sending. It never blocks, which makes it usable
// with a simulated clock.
func (g *Governor) ReserveAt(class string, now time.Time) time.Duration {
	if g == nil {
		return 0
	}
	return g.limiter(class).ReserveN(now, 1).DelayFrom(now)
}
