package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"farecast/internal/modules/location"
	"farecast/internal/types"
)

func fakeGoogle(t *testing.T, path, body string) *maps.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient("AIza-test-key", maps.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client
}

func TestGeocodeService_Geocode(t *testing.T) {
	client := fakeGoogle(t, "/maps/api/geocode/json", `{
		"status": "OK",
		"results": [{
			"formatted_address": "20 W 34th St., New York, NY 10001, USA",
			"geometry": {"location": {"lat": 40.7484405, "lng": -73.9856644}}
		}]
	}`)

	p, err := NewGeocodeService(client, "en", "us").Geocode(context.Background(), "empire state building")
	require.NoError(t, err)
	assert.Equal(t, types.Place{
		Name:     "20 W 34th St., New York, NY 10001, USA",
		Position: types.Point{Lat: 40.7484405, Lng: -73.9856644},
	}, p)
}

func TestGeocodeService_NoResults(t *testing.T) {
	client := fakeGoogle(t, "/maps/api/geocode/json", `{"status": "ZERO_RESULTS", "results": []}`)

	_, err := NewGeocodeService(client, "", "").Geocode(context.Background(), "xyzzy")
	assert.ErrorIs(t, err, location.ErrPlaceNotFound)
}

func TestRouteService_Route(t *testing.T) {
	client := fakeGoogle(t, "/maps/api/directions/json", "{"+
		`"status": "OK",`+
		`"geocoded_waypoints": [],`+
		`"routes": [{`+
		`"summary": "Broadway",`+
		"\"overview_polyline\": {\"points\": \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"},"+
		`"legs": [{"distance": {"text": "4.8 km", "value": 4838}, "duration": {"text": "15 mins", "value": 900}}]`+
		`}]}`)

	r, err := NewRouteService(client).Route(context.Background(),
		types.Point{Lat: 40.7484, Lng: -73.9876}, types.Point{Lat: 40.7306, Lng: -73.9352})
	require.NoError(t, err)

	require.Len(t, r.Path, 3)
	assert.InDelta(t, 38.5, r.Path[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, r.Path[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, r.Path[2].Lat, 1e-5)
	assert.Equal(t, 4838, r.DistanceMeters)
	assert.Equal(t, 15*time.Minute, r.Duration)
}

func TestRouteService_NoRoute(t *testing.T) {
	client := fakeGoogle(t, "/maps/api/directions/json", `{"status": "OK", "routes": []}`)

	_, err := NewRouteService(client).Route(context.Background(), types.Point{}, types.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrNoRoute)
}
