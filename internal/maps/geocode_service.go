package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"farecast/internal/modules/location"
	"farecast/internal/types"
)

// GeocodeService resolves search queries with the Google Geocoding API.
type GeocodeService struct {
	client   *maps.Client
	language string
	region   string
}

func NewGeocodeService(client *maps.Client, language, region string) *GeocodeService {
	return &GeocodeService{client: client, language: language, region: region}
}

// Geocode returns the first Google hit for query.
func (s *GeocodeService) Geocode(ctx context.Context, query string) (types.Place, error) {
	r := &maps.GeocodingRequest{
		Address:  query,
		Language: s.language,
		Region:   s.region,
	}
	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return types.Place{}, location.ErrPlaceNotFound
		}
		return types.Place{}, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return types.Place{}, location.ErrPlaceNotFound
	}

	hit := results[0]
	return types.Place{
		Name:     hit.FormattedAddress,
		Position: types.Point{Lat: hit.Geometry.Location.Lat, Lng: hit.Geometry.Location.Lng},
	}, nil
}
