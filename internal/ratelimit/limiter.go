package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProviderLimiter enforces a minimum delay between consecutive requests to
// each provider. The pacing is process-wide per provider name, so retries
// and concurrent searches all share the same budget.
type ProviderLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultDelay time.Duration
}

const DefaultDelay = time.Second

func NewProviderLimiter(defaultDelay time.Duration) *ProviderLimiter {
	if defaultDelay <= 0 {
		defaultDelay = DefaultDelay
	}
	return &ProviderLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultDelay: defaultDelay,
	}
}

func (p *ProviderLimiter) GetLimiter(provider string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[provider]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists = p.limiters[provider]; exists {
		return limiter
	}

	limiter = newDelayLimiter(p.defaultDelay)
	p.limiters[provider] = limiter
	return limiter
}

func (p *ProviderLimiter) SetProviderDelay(provider string, delay time.Duration) {
	if delay <= 0 {
		delay = p.defaultDelay
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.limiters[provider] = newDelayLimiter(delay)
}

func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	return p.GetLimiter(provider).Wait(ctx)
}

func newDelayLimiter(delay time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}
