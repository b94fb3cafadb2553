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

// GeoapifyFeature is one raw place from the Geoapify Places API: GeoJSON
// geometry with a [lon, lat] coordinate pair plus a flat properties bag.
type GeoapifyFeature struct {
	Geometry   GeoapifyGeometry   `json:"geometry"`
	Properties GeoapifyProperties `json:"properties"`
}

type GeoapifyGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type GeoapifyProperties struct {
	Name        string   `json:"name"`
	Street      string   `json:"street"`
	HouseNumber string   `json:"housenumber"`
	District    string   `json:"district"`
	City        string   `json:"city"`
	Categories  []string `json:"categories"`
}

type geoapifyResponse struct {
	Features []GeoapifyFeature `json:"features"`
}

// GeoapifyClient queries the Geoapify Places API. The only provider needing
// an API key; best effort like Overpass.
type GeoapifyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewGeoapifyClient(baseURL, apiKey string, logger *zap.SugaredLogger) *GeoapifyClient {
	return &GeoapifyClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// SearchText runs a free-text place search biased around the origin.
func (c *GeoapifyClient) SearchText(ctx context.Context, query string, origin geo.Point) ([]store.Venue, error) {
	if c.apiKey == "" {
		c.logger.Warnw("geoapify api key not set, skipping external search")
		return nil, nil
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("categories", "catering.bar,catering.pub,adult.nightclub,catering.restaurant")
	params.Set("bias", fmt.Sprintf("proximity:%f,%f", origin.Lng, origin.Lat))
	params.Set("limit", "20")
	params.Set("apiKey", c.apiKey)

	return c.run(ctx, params)
}

func (c *GeoapifyClient) run(ctx context.Context, params url.Values) ([]store.Venue, error) {
	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoapify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geoapify returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geoapifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geoapify response: %w", err)
	}

	now := c.now()
	venues := make([]store.Venue, 0, len(parsed.Features))
	for _, f := range parsed.Features {
		v, ok := NormalizeGeoapify(f, now)
		if !ok {
			continue
		}
		venues = append(venues, v)
	}
	return venues, nil
}

// NormalizeGeoapify maps a raw Geoapify feature into a Venue. The geometry
// wrapper stores [lon, lat] — the reverse of the radar's lat/lng convention.
func NormalizeGeoapify(f GeoapifyFeature, now time.Time) (store.Venue, bool) {
	if f.Properties.Name == "" || len(f.Geometry.Coordinates) != 2 {
		return store.Venue{}, false
	}

	lng := f.Geometry.Coordinates[0]
	lat := f.Geometry.Coordinates[1]

	addr := addressParts{
		Street:      f.Properties.Street,
		HouseNumber: f.Properties.HouseNumber,
		District:    f.Properties.District,
		City:        f.Properties.City,
	}

	return newVenue(f.Properties.Name, primaryCategoryTag(f.Properties.Categories), lat, lng, addr, "", now), true
}

// primaryCategoryTag reduces Geoapify's dotted category list to the tag
// vocabulary the decision table understands.
func primaryCategoryTag(categories []string) string {
	for _, c := range categories {
		parts := strings.Split(c, ".")
		leaf := parts[len(parts)-1]
		if _, ok := exactTagCategories[leaf]; ok {
			return leaf
		}
		if ambiguousTags[leaf] {
			return leaf
		}
	}
	return ""
}
