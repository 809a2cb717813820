package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	Allow(key string) bool
	Wait(ctx context.Context, key string) error
}

// InMemoryLimiter keeps one token bucket per key in memory
type InMemoryLimiter struct {
	keys map[string]*rate.Limiter
	mu   sync.Mutex
	r    rate.Limit // tokens added per second
	b    int        // bucket size
}

// NewInMemoryLimiter creates a keyed limiter.
// Example: NewInMemoryLimiter(1, 5) -> one request per second per key, bursts of 5
func NewInMemoryLimiter(perSecond float64, burst int) *InMemoryLimiter {
	r := rate.Limit(perSecond)
	if perSecond <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &InMemoryLimiter{
		keys: make(map[string]*rate.Limiter),
		r:    r,
		b:    burst,
	}
}

func (l *InMemoryLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.keys[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.keys[key] = limiter
	}
	return limiter
}

// Allow reports whether key may act now, consuming a token if so
func (l *InMemoryLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait blocks until key may act or ctx is done
func (l *InMemoryLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}
