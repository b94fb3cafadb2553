package discovery_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"pulso/internal/discovery"
	"pulso/internal/geo"
	"pulso/internal/spatial"
	"pulso/internal/store"
)

type fakeVenueStore struct {
	venues    []store.Venue
	searchHit []store.Venue
	err       error
	listCalls int
	lastBox   geo.BoundingBox
}

func (f *fakeVenueStore) ListInBox(_ context.Context, box geo.BoundingBox) ([]store.Venue, error) {
	f.listCalls++
	f.lastBox = box
	if f.err != nil {
		return nil, f.err
	}
	return f.venues, nil
}

func (f *fakeVenueStore) SearchByName(_ context.Context, _ string) ([]store.Venue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchHit, nil
}

type fakeSearcher struct {
	venues []store.Venue
	err    error
	calls  int
}

func (f *fakeSearcher) SearchText(_ context.Context, _ string, _ geo.Point) ([]store.Venue, error) {
	f.calls++
	return f.venues, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newService(venues *fakeVenueStore, searcher *fakeSearcher, clock *fakeClock) *discovery.Service {
	cache := spatial.NewCache(clock.Now)
	rng := rand.New(rand.NewSource(1))
	return discovery.NewService(venues, searcher, cache, zap.NewNop().Sugar(), clock.Now, rng)
}

var testOrigin = geo.Point{Lat: -23.5505, Lng: -46.6333}

func storedVenues() []store.Venue {
	return []store.Venue{
		{ID: "far", Name: "Club Longe", Lat: testOrigin.Lat + 0.02, Lng: testOrigin.Lng},
		{ID: "near", Name: "Bar Perto", Lat: testOrigin.Lat + 0.001, Lng: testOrigin.Lng},
	}
}

func TestDiscoverAnnotatesAndSortsByDistance(t *testing.T) {
	venues := &fakeVenueStore{venues: storedVenues()}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, &fakeSearcher{}, clock)

	got := svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 venues, got %d", len(got))
	}
	if got[0].ID != "near" || got[1].ID != "far" {
		t.Errorf("expected ascending distance order, got %s then %s", got[0].ID, got[1].ID)
	}
	if got[0].DistanceMeters <= 0 || got[1].DistanceMeters <= got[0].DistanceMeters {
		t.Errorf("distances must be annotated and increasing: %f, %f", got[0].DistanceMeters, got[1].DistanceMeters)
	}
}

func TestDiscoverUsesCacheWithinThresholds(t *testing.T) {
	venues := &fakeVenueStore{venues: storedVenues()}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, &fakeSearcher{}, clock)

	svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if venues.listCalls != 1 {
		t.Fatalf("expected 1 store query, got %d", venues.listCalls)
	}

	// 59s later, 0.04° away: served from cache, distances recomputed
	// against the new origin.
	clock.Advance(59 * time.Second)
	moved := geo.Point{Lat: testOrigin.Lat + 0.04, Lng: testOrigin.Lng}
	got := svc.Discover(context.Background(), moved.Lat, moved.Lng, nil)
	if venues.listCalls != 1 {
		t.Errorf("expected cache hit, store was queried again")
	}
	// From the new origin "far" (+0.02) is closer than "near" (+0.001).
	if got[0].ID != "far" {
		t.Errorf("cached venues must be re-sorted against the new origin, got %s first", got[0].ID)
	}

	// 61s after the fetch: cache expired.
	clock.Advance(2 * time.Second)
	svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if venues.listCalls != 2 {
		t.Errorf("expected refetch after TTL, got %d store queries", venues.listCalls)
	}
}

func TestDiscoverBoundedBypassesCache(t *testing.T) {
	venues := &fakeVenueStore{venues: storedVenues()}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, &fakeSearcher{}, clock)

	bounds := &geo.BoundingBox{North: testOrigin.Lat + 0.05, South: testOrigin.Lat - 0.05, East: testOrigin.Lng + 0.05, West: testOrigin.Lng - 0.05}

	svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, bounds)
	svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, bounds)
	if venues.listCalls != 2 {
		t.Errorf("bounded queries must bypass the cache, got %d store queries", venues.listCalls)
	}

	// Box is expanded by the buffer before hitting the store.
	if venues.lastBox.North != bounds.North+discovery.BoxBuffer {
		t.Errorf("expected expanded box, got north=%f", venues.lastBox.North)
	}

	// A bounded fetch must not seed the cache for the unbounded path.
	svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if venues.listCalls != 3 {
		t.Errorf("unbounded query after bounded ones must hit the store")
	}
}

func TestDiscoverFallsBackToSyntheticOnStoreError(t *testing.T) {
	venues := &fakeVenueStore{err: errors.New("connection refused")}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, &fakeSearcher{}, clock)

	got := svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if len(got) != discovery.SyntheticCount {
		t.Fatalf("expected %d synthetic venues, got %d", discovery.SyntheticCount, len(got))
	}
	for _, v := range got {
		if !v.Suggestion {
			t.Fatalf("synthetic venues must be suggestion-flagged: %+v", v)
		}
		if !store.IsTemporaryID(v.ID) {
			t.Errorf("synthetic venues must carry temp ids, got %q", v.ID)
		}
		if v.DistanceMeters > 2000 {
			t.Errorf("decoys should scatter near the origin, got %f m", v.DistanceMeters)
		}
	}

	// Decoys are per-request fiction: they must not poison the cache.
	venues.err = nil
	venues.venues = storedVenues()
	fresh := svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if len(fresh) != 2 {
		t.Errorf("recovered store should serve real venues, got %d", len(fresh))
	}
}

func TestDiscoverEmptyResultIsNotFailure(t *testing.T) {
	venues := &fakeVenueStore{venues: nil}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, &fakeSearcher{}, clock)

	got := svc.Discover(context.Background(), testOrigin.Lat, testOrigin.Lng, nil)
	if len(got) != 0 {
		t.Errorf("an empty store result must stay empty, not trigger decoys; got %d", len(got))
	}
}

func TestSearchByTextMinLength(t *testing.T) {
	venues := &fakeVenueStore{}
	searcher := &fakeSearcher{}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, searcher, clock)

	if got := svc.SearchByText(context.Background(), "a", testOrigin.Lat, testOrigin.Lng); got != nil {
		t.Errorf("single-character query must return empty, got %v", got)
	}
	if searcher.calls != 0 {
		t.Errorf("short queries must not reach the provider")
	}
}

func TestSearchByTextMergeDedup(t *testing.T) {
	stored := []store.Venue{
		{ID: "db-1", Name: "Bar Brahma", Lat: -23.5440, Lng: -46.6396},
	}
	external := []store.Venue{
		{ID: "osm-x", Name: "bar brahma", Lat: -23.9, Lng: -46.9},                 // duplicate by name (case-insensitive)
		{ID: "osm-y", Name: "Brahma Anexo", Lat: -23.5441, Lng: -46.6397},         // duplicate by proximity (<0.0005 both axes)
		{ID: "osm-z", Name: "Bar Brahmosa", Lat: -23.5200, Lng: -46.6000},         // genuinely new
		{ID: "osm-w", Name: "Esquina Brahma", Lat: -23.5441, Lng: -46.6500},       // close on lat only: kept
	}

	venues := &fakeVenueStore{searchHit: stored}
	searcher := &fakeSearcher{venues: external}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, searcher, clock)

	got := svc.SearchByText(context.Background(), "brahma", testOrigin.Lat, testOrigin.Lng)
	if len(got) != 3 {
		t.Fatalf("expected 3 merged results, got %d: %+v", len(got), got)
	}

	ids := map[string]bool{}
	for _, v := range got {
		ids[v.ID] = true
	}
	if !ids["db-1"] {
		t.Errorf("the stored record must always win")
	}
	if ids["osm-x"] || ids["osm-y"] {
		t.Errorf("duplicates must be dropped: %v", ids)
	}
	if !ids["osm-z"] || !ids["osm-w"] {
		t.Errorf("non-duplicates must survive the merge: %v", ids)
	}

	// Sorted by distance from the origin.
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMeters < got[i-1].DistanceMeters {
			t.Errorf("results must be sorted ascending by distance")
		}
	}
}

func TestSearchByTextProviderFailureDegrades(t *testing.T) {
	stored := []store.Venue{{ID: "db-1", Name: "Bar Brahma", Lat: -23.5440, Lng: -46.6396}}
	venues := &fakeVenueStore{searchHit: stored}
	searcher := &fakeSearcher{err: errors.New("timeout")}
	clock := &fakeClock{t: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)}
	svc := newService(venues, searcher, clock)

	got := svc.SearchByText(context.Background(), "brahma", testOrigin.Lat, testOrigin.Lng)
	if len(got) != 1 || got[0].ID != "db-1" {
		t.Errorf("provider failure must not break stored results, got %+v", got)
	}
}
