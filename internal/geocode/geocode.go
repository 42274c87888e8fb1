package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mgorcz2/shipment-monitoring-project/internal/geo"
)

// ErrNotFound means the lookup succeeded but matched no address. It is
// distinct from transport failures so callers can tell "no such address"
// from "search failed".
var ErrNotFound = errors.New("address not found")

// Geocoder resolves a free-text postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geo.Point, error)
}

// Client queries a Nominatim-compatible search endpoint. It is stateless:
// no cache, no retries.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: "shipment-monitoring-api/1.0",
		http:      httpClient,
	}
}

// Geocode issues a free-text search and returns the first match. A lookup
// that returns zero matches yields ErrNotFound; any network, status or
// decoding failure is reported as a different error.
func (c *Client) Geocode(ctx context.Context, query string) (geo.Point, error) {
	u := fmt.Sprintf("%s/search?format=json&q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Point{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return geo.Point{}, fmt.Errorf("geocode endpoint %d: %s", resp.StatusCode, string(b))
	}
	// Matches carry lat/lon as numeric strings.
	var matches []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&matches); err != nil {
		return geo.Point{}, fmt.Errorf("geocode response: %w", err)
	}
	if len(matches) == 0 {
		return geo.Point{}, ErrNotFound
	}
	lat, err := strconv.ParseFloat(matches[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode response lat: %w", err)
	}
	lon, err := strconv.ParseFloat(matches[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode response lon: %w", err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}
