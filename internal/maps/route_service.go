package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"farecast/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// Route is a driving route decoded from Directions.
type Route struct {
	Path           []types.Point `json:"path"`
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
}

// RouteService handles interactions with the Google Directions API.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(client *maps.Client) *RouteService {
	return &RouteService{client: client}
}

// Route returns the driving route from origin to destination.
func (s *RouteService) Route(ctx context.Context, origin, destination types.Point) (Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLng(origin.Lat, origin.Lng),
		Destination: latLng(destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, ErrNoRoute
	}

	decoded, err := routes[0].OverviewPolyline.Decode()
	if err != nil {
		return Route{}, fmt.Errorf("decode polyline: %w", err)
	}
	out := Route{Path: make([]types.Point, 0, len(decoded))}
	for _, ll := range decoded {
		out.Path = append(out.Path, types.Point{Lat: ll.Lat, Lng: ll.Lng})
	}
	for _, leg := range routes[0].Legs {
		out.DistanceMeters += leg.Distance.Meters
		out.Duration += leg.Duration
	}
	return out, nil
}
