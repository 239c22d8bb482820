package maps

import (
	"fmt"

	"googlemaps.github.io/maps"
)

// NewClient builds a Google Maps client. opts are appended after the key,
// so tests can point it at a fake server with maps.WithBaseURL.
func NewClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

func latLng(lat, lng float64) string {
	return fmt.Sprintf("%f,%f", lat, lng)
}
