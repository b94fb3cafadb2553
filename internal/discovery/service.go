package discovery

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pulso/internal/geo"
	"pulso/internal/spatial"
	"pulso/internal/store"
)

const (
	// BoxBuffer expands a requested viewport box on every side so venues
	// sitting right on the edge are not clipped (~0.01° ≈ 1.1 km).
	BoxBuffer = 0.01

	// DefaultNearbySpan is the half-width, in degrees, of the implicit box
	// used for the default nearby query when the caller sends no bounds.
	DefaultNearbySpan = 0.25

	// MinQueryLength: shorter free-text queries return empty without
	// touching the store or the provider.
	MinQueryLength = 2

	// DedupProximityDegrees: an external search result this close to a
	// stored venue on both axes is the same place (~50 m).
	DedupProximityDegrees = 0.0005
)

// VenueStore is the slice of the storage layer discovery needs.
type VenueStore interface {
	ListInBox(ctx context.Context, box geo.BoundingBox) ([]store.Venue, error)
	SearchByName(ctx context.Context, q string) ([]store.Venue, error)
}

// TextSearcher is an external provider's free-text search.
type TextSearcher interface {
	SearchText(ctx context.Context, query string, origin geo.Point) ([]store.Venue, error)
}

// Service orchestrates venue discovery: spatial cache, persistent store,
// synthetic fallback and multi-source text search. One instance is built at
// composition time and owns the process-wide cache.
type Service struct {
	venues   VenueStore
	searcher TextSearcher
	cache    *spatial.Cache
	logger   *zap.SugaredLogger

	// Injected so tests control the synthetic generator and staleness.
	now func() time.Time
	rng *rand.Rand
}

func NewService(venues VenueStore, searcher TextSearcher, cache *spatial.Cache, logger *zap.SugaredLogger, now func() time.Time, rng *rand.Rand) *Service {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		venues:   venues,
		searcher: searcher,
		cache:    cache,
		logger:   logger,
		now:      now,
		rng:      rng,
	}
}

// Discover returns venues near the origin, distance-annotated and sorted
// ascending. bounds, when present, restricts the query to a viewport box and
// bypasses the cache. Store failure degrades to the synthetic generator —
// the map must always have something to render.
func (s *Service) Discover(ctx context.Context, lat, lng float64, bounds *geo.BoundingBox) []store.Venue {
	origin := geo.Point{Lat: lat, Lng: lng}

	if bounds == nil {
		if cached, ok := s.cache.Get(origin); ok {
			return annotateAndSort(origin, cached)
		}
	}

	box := s.queryBox(origin, bounds)
	venues, err := s.venues.ListInBox(ctx, box)
	if err != nil {
		// Genuine store failure, not an empty result: degrade to decoys
		// so exploration keeps working.
		s.logger.Errorw("venue query failed, serving suggestions", "error", err)
		return annotateAndSort(origin, s.syntheticVenues(origin))
	}

	annotated := annotateAndSort(origin, venues)
	if bounds == nil {
		// Only real full fetches refresh the cache; decoys and viewport
		// slices never do.
		s.cache.Put(origin, venues)
	}
	return annotated
}

func (s *Service) queryBox(origin geo.Point, bounds *geo.BoundingBox) geo.BoundingBox {
	if bounds != nil {
		return bounds.Expand(BoxBuffer)
	}
	return geo.BoundingBox{
		North: origin.Lat + DefaultNearbySpan,
		South: origin.Lat - DefaultNearbySpan,
		East:  origin.Lng + DefaultNearbySpan,
		West:  origin.Lng - DefaultNearbySpan,
	}
}

// SearchByText merges a persistent-store substring search with the external
// provider's text search, deduplicated: a stored venue always wins over an
// external duplicate matching by exact name or by coordinate proximity on
// both axes.
func (s *Service) SearchByText(ctx context.Context, query string, lat, lng float64) []store.Venue {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil
	}

	origin := geo.Point{Lat: lat, Lng: lng}

	var (
		wg              sync.WaitGroup
		stored, fetched []store.Venue
		storeErr        error
		providerErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stored, storeErr = s.venues.SearchByName(ctx, query)
	}()
	go func() {
		defer wg.Done()
		fetched, providerErr = s.searcher.SearchText(ctx, query, origin)
	}()
	wg.Wait()

	if storeErr != nil {
		s.logger.Errorw("store text search failed", "query", query, "error", storeErr)
		stored = nil
	}
	if providerErr != nil {
		s.logger.Warnw("provider text search failed", "query", query, "error", providerErr)
		fetched = nil
	}

	merged := stored
	for _, candidate := range fetched {
		if !isDuplicate(candidate, stored) {
			merged = append(merged, candidate)
		}
	}

	return annotateAndSort(origin, merged)
}

func isDuplicate(candidate store.Venue, existing []store.Venue) bool {
	for _, e := range existing {
		if strings.EqualFold(candidate.Name, e.Name) {
			return true
		}
		if abs(candidate.Lat-e.Lat) < DedupProximityDegrees &&
			abs(candidate.Lng-e.Lng) < DedupProximityDegrees {
			return true
		}
	}
	return false
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// annotateAndSort stamps the live distance from the origin on every venue and
// orders ascending. Distance is always recomputed against the caller's
// current origin, even for cached snapshots.
func annotateAndSort(origin geo.Point, venues []store.Venue) []store.Venue {
	for i := range venues {
		venues[i].DistanceMeters = geo.DistanceBetween(origin, venues[i].Position())
	}
	sort.Slice(venues, func(i, j int) bool {
		return venues[i].DistanceMeters < venues[j].DistanceMeters
	})
	return venues
}
