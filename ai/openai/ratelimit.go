package openai

import (
	"context"

	"golang.org/x/time/rate"
)

// limiter throttles requests to the language and embedding services.
// A nil limiter never blocks.
type limiter struct {
	rl *rate.Limiter
}

// newLimiter creates a limiter allowing rps requests per second.
// A non-positive rps disables limiting.
func newLimiter(rps float64) *limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &limiter{rl: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be made or ctx is done.
func (l *limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.rl.Wait(ctx)
}
