package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"farecast/internal/types"
)

const (
	DefaultNominatimURL     = "https://nominatim.openstreetmap.org"
	DefaultNominatimTimeout = 10 * time.Second
)

// Nominatim geocodes through an OpenStreetMap Nominatim server.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewNominatim(baseURL, userAgent string, httpClient *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultNominatimTimeout}
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
	}
}

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Geocode(ctx context.Context, query string) (types.Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return types.Place{}, err
	}
	// Nominatim's usage policy requires an identifying agent.
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.http.Do(req)
	if err != nil {
		return types.Place{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.Place{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return types.Place{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(hits) == 0 {
		return types.Place{}, ErrPlaceNotFound
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return types.Place{}, fmt.Errorf("nominatim lat %q: %w", hits[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return types.Place{}, fmt.Errorf("nominatim lon %q: %w", hits[0].Lon, err)
	}
	return types.Place{Name: hits[0].DisplayName, Position: types.Point{Lat: lat, Lng: lng}}, nil
}
