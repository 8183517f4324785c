package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned when the provider has failed repeatedly and
// the breaker is rejecting calls. Callers use the deterministic fallback.
var ErrCircuitOpen = errors.New("llm circuit breaker is open")

// GuardedClient wraps a provider with a circuit breaker and a rate
// limiter: a flapping or dead provider trips to the templated fallback
// path immediately instead of timing out on every call.
type GuardedClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// Guard wraps a client with default breaker and limiter settings:
// trip after 3 consecutive failures, retry after 30s, at most one
// provider call per second with a small burst.
func Guard(inner Client) *GuardedClient {
	settings := gobreaker.Settings{
		Name: "llm",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		Timeout: 30 * time.Second,
	}
	return &GuardedClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Complete runs the completion through the limiter and breaker.
func (g *GuardedClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := g.breaker.Execute(func() (any, error) {
		return g.inner.Complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result.(*Response), nil
}
