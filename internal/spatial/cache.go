package spatial

import (
	"math"
	"sync"
	"time"

	"pulso/internal/geo"
	"pulso/internal/store"
)

const (
	// TTL is how long a cached nearby fetch stays reusable.
	TTL = 60 * time.Second

	// OriginDrift is the maximum movement, in coordinate degrees, between
	// the cached origin and a new query before a refetch is forced.
	// Deliberately compared in degree space, not meters (~0.05° ≈ 50m at
	// the precision the map cares about).
	OriginDrift = 0.05
)

// Cache memoizes the last full nearby-venue fetch. One instance lives for the
// whole process, owned by the discovery service; only unbounded discovery
// fetches write to it, readers never mutate it. Bounded (viewport) queries
// bypass it entirely.
type Cache struct {
	mu  sync.Mutex
	now func() time.Time

	origin    geo.Point
	fetchedAt time.Time
	venues    []store.Venue
	valid     bool
}

// NewCache builds an empty cache. The clock is injected so tests can pin it.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now}
}

// Get returns the cached venue snapshot when it is still valid for the given
// origin: younger than TTL and within OriginDrift degrees of the origin the
// snapshot was fetched for. The returned slice is a copy; distances on it are
// the caller's to recompute — distance is always live, never cached.
func (c *Cache) Get(origin geo.Point) ([]store.Venue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid {
		return nil, false
	}
	if c.now().Sub(c.fetchedAt) >= TTL {
		return nil, false
	}
	if driftDegrees(c.origin, origin) >= OriginDrift {
		return nil, false
	}

	snapshot := make([]store.Venue, len(c.venues))
	copy(snapshot, c.venues)
	return snapshot, true
}

// Put overwrites the snapshot with a fresh full-fetch result keyed by the
// fetch-time origin.
func (c *Cache) Put(origin geo.Point, venues []store.Venue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.origin = origin
	c.fetchedAt = c.now()
	c.venues = make([]store.Venue, len(venues))
	copy(c.venues, venues)
	c.valid = true
}

func driftDegrees(a, b geo.Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}
