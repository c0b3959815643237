package service

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
)

// TenantCache is a short lived read-through cache in front of tenant
// lookups. Concurrent misses for the same tenant share one store read.
// A zero TTL disables caching.
type TenantCache struct {
	store store.Store
	ttl   time.Duration
	cache *gocache.Cache
	group singleflight.Group

	// gen counts invalidations. A load only caches its result when no
	// Invalidate ran while it was reading.
	mu  sync.Mutex
	gen uint64
}

func NewTenantCache(st store.Store, ttl time.Duration) *TenantCache {
	c := &TenantCache{store: st, ttl: ttl}
	if ttl > 0 {
		c.cache = gocache.New(ttl, 2*ttl)
	}
	return c
}

func (c *TenantCache) Get(ctx context.Context, id string) (domain.Tenant, error) {
	if c.cache == nil {
		return c.store.Tenants().GetTenantByID(ctx, id)
	}
	if v, ok := c.cache.Get(id); ok {
		return v.(domain.Tenant), nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		c.mu.Lock()
		start := c.gen
		c.mu.Unlock()

		// Shared by every waiter, so one caller's cancellation must not
		// fail the others.
		t, err := c.store.Tenants().GetTenantByID(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == start {
			c.cache.Set(id, t, gocache.DefaultExpiration)
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}
	return v.(domain.Tenant), nil
}

// Invalidate drops id so the next Get reads the store. Loads already in
// flight still answer their waiters but do not refill the cache.
func (c *TenantCache) Invalidate(id string) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	c.gen++
	c.cache.Delete(id)
	c.mu.Unlock()
	c.group.Forget(id)
}
