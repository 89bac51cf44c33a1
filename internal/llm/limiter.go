package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of in-flight provider calls across the whole
// process. One Limiter is constructed at startup and shared by every
// provider stack, so concurrent pipeline runs compete for the same slots.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter creates a Limiter permitting at most n concurrent calls.
func NewLimiter(n int64) *Limiter {
	return &Limiter{sem: semaphore.NewWeighted(n)}
}

// Acquire blocks until a slot is available or the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a slot to the pool.
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// LimitedProvider is a decorator that gates every Generate call through a
// shared Limiter. Compose it inside WithRetry: each retry attempt then
// acquires its own slot and no slot is held across a backoff sleep.
type LimitedProvider struct {
	inner   Provider
	limiter *Limiter
}

// WithLimit wraps a Provider with concurrency limiting. A nil limiter
// returns the provider unchanged.
func WithLimit(p Provider, limiter *Limiter) Provider {
	if limiter == nil {
		return p
	}
	return &LimitedProvider{inner: p, limiter: limiter}
}

func (l *LimitedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := l.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer l.limiter.Release()
	return l.inner.Generate(ctx, req)
}

func (l *LimitedProvider) ModelID() string {
	return l.inner.ModelID()
}
