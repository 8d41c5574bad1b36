package catalog

import (
	"context"
	"time"

	"github.com/geocoder89/homehub/internal/cache"
	"github.com/geocoder89/homehub/internal/domain/service"
)

const servicesKey = "services"

// CachedServices keeps the catalog in memory for ttl; the catalog is
// reference data written only by seeding.
type CachedServices struct {
	inner ServiceLister
	cache *cache.Cache[string, []service.Service]
}

func NewCachedServices(inner ServiceLister, ttl time.Duration) *CachedServices {
	return &CachedServices{
		inner: inner,
		cache: cache.New[string, []service.Service](ttl),
	}
}

func (c *CachedServices) List(ctx context.Context) ([]service.Service, error) {
	if cached, ok := c.cache.Get(servicesKey); ok {
		return cloneServices(cached), nil
	}

	services, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(servicesKey, cloneServices(services))
	return services, nil
}

func (c *CachedServices) Invalidate() {
	c.cache.Delete(servicesKey)
}

func cloneServices(in []service.Service) []service.Service {
	out := make([]service.Service, len(in))
	copy(out, in)
	return out
}
