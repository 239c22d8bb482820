// README: Place search for the map's search box: geocoder providers behind a Redis cache.
package location

import (
	"context"
	"errors"
	"strings"

	"farecast/internal/types"
)

var (
	ErrPlaceNotFound = errors.New("place not found")
	ErrEmptyQuery    = errors.New("search query is empty")
)

// Geocoder resolves a free-text query to its best matching place.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (types.Place, error)
}

// NormalizeQuery trims, lowercases and collapses whitespace so equivalent
// queries share a cache entry.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
