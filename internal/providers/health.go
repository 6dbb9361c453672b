package providers

import (
	"context"
	"sync"
	"time"
)

// HealthChecker is implemented by providers the failover chain can skip
// before attempting a send.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// CachedProbe remembers the outcome of probe for ttl. Concurrent callers
// wait for a single in-flight probe.
type CachedProbe struct {
	probe func(ctx context.Context) bool
	ttl   time.Duration

	mu      sync.Mutex
	healthy bool
	expiry  time.Time
}

func NewCachedProbe(ttl time.Duration, probe func(ctx context.Context) bool) *CachedProbe {
	return &CachedProbe{probe: probe, ttl: ttl}
}

func (c *CachedProbe) IsHealthy(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.expiry) {
		return c.healthy
	}

	c.healthy = c.probe(ctx)
	c.expiry = time.Now().Add(c.ttl)
	return c.healthy
}

// InvalidateCache makes the next IsHealthy call probe again.
func (c *CachedProbe) InvalidateCache() {
	c.mu.Lock()
	c.expiry = time.Time{}
	c.mu.Unlock()
}
