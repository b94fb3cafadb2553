package spatial_test

import (
	"testing"
	"time"

	"pulso/internal/geo"
	"pulso/internal/spatial"
	"pulso/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func someVenues() []store.Venue {
	return []store.Venue{
		{ID: "a", Name: "Bar do Zé", Lat: -23.55, Lng: -46.63},
		{ID: "b", Name: "Club Neon", Lat: -23.56, Lng: -46.64},
	}
}

func TestCacheHitWithinThresholds(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	cache := spatial.NewCache(clock.Now)

	origin := geo.Point{Lat: -23.55, Lng: -46.63}
	cache.Put(origin, someVenues())

	// 59 seconds later, shifted 0.04 degrees: still a hit.
	clock.Advance(59 * time.Second)
	shifted := geo.Point{Lat: origin.Lat + 0.04, Lng: origin.Lng}

	got, ok := cache.Get(shifted)
	if !ok {
		t.Fatalf("expected cache hit at 59s / 0.04° shift")
	}
	if len(got) != 2 || got[0].ID != "a" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestCacheMissAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	cache := spatial.NewCache(clock.Now)

	origin := geo.Point{Lat: -23.55, Lng: -46.63}
	cache.Put(origin, someVenues())

	clock.Advance(61 * time.Second)
	if _, ok := cache.Get(origin); ok {
		t.Errorf("expected cache miss after 61s")
	}
}

func TestCacheMissOnDrift(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	cache := spatial.NewCache(clock.Now)

	origin := geo.Point{Lat: -23.55, Lng: -46.63}
	cache.Put(origin, someVenues())

	clock.Advance(time.Second)
	drifted := geo.Point{Lat: origin.Lat + 0.06, Lng: origin.Lng}
	if _, ok := cache.Get(drifted); ok {
		t.Errorf("expected cache miss on 0.06° drift")
	}
}

func TestCacheEmptyMisses(t *testing.T) {
	cache := spatial.NewCache(nil)
	if _, ok := cache.Get(geo.Point{Lat: -23.55, Lng: -46.63}); ok {
		t.Errorf("empty cache must miss")
	}
}

func TestCacheSnapshotIsACopy(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	cache := spatial.NewCache(clock.Now)

	origin := geo.Point{Lat: -23.55, Lng: -46.63}
	cache.Put(origin, someVenues())

	first, _ := cache.Get(origin)
	first[0].DistanceMeters = 999 // callers annotate live distance on their copy

	second, _ := cache.Get(origin)
	if second[0].DistanceMeters != 0 {
		t.Errorf("annotating a snapshot must not leak back into the cache")
	}
}
