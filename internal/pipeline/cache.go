package pipeline

import (
	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
)

// InstrumentedCache wraps an estimate cache and counts hits and misses.
type InstrumentedCache struct {
	next    domain.EstimateCache
	metrics *observability.Metrics
}

// NewInstrumentedCache decorates next with climate cache metrics.
func NewInstrumentedCache(next domain.EstimateCache, metrics *observability.Metrics) *InstrumentedCache {
	return &InstrumentedCache{next: next, metrics: metrics}
}

func (c *InstrumentedCache) Get(key string) (domain.ClimateEstimate, bool) {
	est, ok := c.next.Get(key)
	if ok {
		c.metrics.ClimateCache.WithLabelValues("hit").Inc()
	} else {
		c.metrics.ClimateCache.WithLabelValues("miss").Inc()
	}
	return est, ok
}

func (c *InstrumentedCache) Put(key string, estimate domain.ClimateEstimate) {
	c.next.Put(key, estimate)
}
