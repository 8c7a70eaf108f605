// Package geocode resolves addresses to coordinates through OpenCage and
// builds OpenStreetMap tile and map page URLs.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoKey is returned when no API key is configured.
	ErrNoKey = errors.New("geocoder API key not configured")
	// ErrNoResults is returned when the query matched nothing.
	ErrNoResults = errors.New("no geocoding results")
)

// Default map center (São Paulo), used when no coordinates are known.
var DefaultCenter = Point{Lat: -23.55052, Lng: -46.633308}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Client queries the OpenCage forward geocoding API.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

// New creates a geocoder. An empty key makes every lookup fail with ErrNoKey.
func New(endpoint, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type response struct {
	Results []struct {
		Geometry  Point  `json:"geometry"`
		Formatted string `json:"formatted"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Lookup returns the coordinates of the first result for query.
func (c *Client) Lookup(ctx context.Context, query string) (Point, error) {
	if c.key == "" {
		return Point{}, ErrNoKey
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.key)
	params.Set("limit", "1")
	params.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("geocode.Lookup: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode.Lookup: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Point{}, fmt.Errorf("geocode.Lookup: read body: %w", err)
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		if resp.StatusCode >= 400 {
			return Point{}, fmt.Errorf("geocode.Lookup: HTTP %d", resp.StatusCode)
		}
		return Point{}, fmt.Errorf("geocode.Lookup: decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := r.Status.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Point{}, fmt.Errorf("geocode.Lookup: HTTP %d: %s", resp.StatusCode, msg)
	}
	if len(r.Results) == 0 {
		return Point{}, ErrNoResults
	}
	return r.Results[0].Geometry, nil
}

// Tile returns the slippy-map tile coordinates containing p at zoom z.
func Tile(p Point, z int) (x, y int) {
	n := math.Exp2(float64(z))
	latRad := p.Lat * math.Pi / 180
	x = int(math.Floor((p.Lng + 180) / 360 * n))
	y = int(math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n))
	maxIdx := int(n) - 1
	x = clamp(x, 0, maxIdx)
	y = clamp(y, 0, maxIdx)
	return x, y
}

// TileURL returns the PNG tile URL under base for p at zoom z.
func TileURL(base string, p Point, z int) string {
	x, y := Tile(p, z)
	return fmt.Sprintf("%s/%d/%d/%d.png", strings.TrimRight(base, "/"), z, x, y)
}

// MapURL returns the OpenStreetMap page centered on p with a marker.
func MapURL(p Point, z int) string {
	lat := formatCoord(p.Lat)
	lng := formatCoord(p.Lng)
	return "https://www.openstreetmap.org/?mlat=" + lat + "&mlon=" + lng +
		"#map=" + strconv.Itoa(z) + "/" + lat + "/" + lng
}

// String renders a point as "lat, lng".
func (p Point) String() string {
	return formatCoord(p.Lat) + ", " + formatCoord(p.Lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
