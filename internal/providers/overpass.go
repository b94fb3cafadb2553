package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pulso/internal/geo"
	"pulso/internal/store"
)

// nightlifeAmenities is the amenity filter sent to Overpass.
const nightlifeAmenities = "bar|pub|nightclub|restaurant|biergarten|fast_food|casino"

// OverpassElement is one raw OSM element from an Overpass response. Nodes
// carry lat/lon directly; ways carry a center sub-object for the aggregated
// geometry.
type OverpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *OverpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type OverpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassClient queries the OSM Overpass API for nightlife venues. Best
// effort: failures degrade upstream, never propagate to the user.
type OverpassClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewOverpassClient(baseURL string, logger *zap.SugaredLogger) *OverpassClient {
	return &OverpassClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// Nearby fetches nightlife venues around the origin, normalized.
func (c *OverpassClient) Nearby(ctx context.Context, origin geo.Point, radiusMeters int) ([]store.Venue, error) {
	query := fmt.Sprintf(`[out:json][timeout:10];
(
  node["amenity"~"%s"](around:%d,%f,%f);
  way["amenity"~"%s"](around:%d,%f,%f);
);
out center;`,
		nightlifeAmenities, radiusMeters, origin.Lat, origin.Lng,
		nightlifeAmenities, radiusMeters, origin.Lat, origin.Lng)

	elements, err := c.run(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.normalizeAll(elements), nil
}

func (c *OverpassClient) run(ctx context.Context, query string) ([]OverpassElement, error) {
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}
	return parsed.Elements, nil
}

func (c *OverpassClient) normalizeAll(elements []OverpassElement) []store.Venue {
	now := c.now()
	venues := make([]store.Venue, 0, len(elements))
	for _, el := range elements {
		v, ok := NormalizeOverpass(el, now)
		if !ok {
			continue
		}
		venues = append(venues, v)
	}
	return venues
}

// NormalizeOverpass maps a raw OSM element into a Venue. Returns false for
// records the radar cannot place: no name or no usable coordinates.
func NormalizeOverpass(el OverpassElement, now time.Time) (store.Venue, bool) {
	name := el.Tags["name"]
	if name == "" {
		return store.Venue{}, false
	}

	lat, lng := el.Lat, el.Lon
	if lat == 0 && lng == 0 {
		if el.Center == nil {
			return store.Venue{}, false
		}
		lat, lng = el.Center.Lat, el.Center.Lon
	}

	tag := el.Tags["amenity"]
	if tag == "" {
		tag = el.Tags["shop"]
	}

	addr := addressParts{
		Street:      el.Tags["addr:street"],
		HouseNumber: el.Tags["addr:housenumber"],
		District:    el.Tags["addr:suburb"],
		City:        el.Tags["addr:city"],
	}

	return newVenue(name, tag, lat, lng, addr, "", now), true
}
