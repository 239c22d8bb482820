// README: Location service resolves search-box queries to places.
package location

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"farecast/internal/types"
)

type Service struct {
	geocoder Geocoder
	log      *zap.Logger
}

func NewService(geocoder Geocoder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{geocoder: geocoder, log: log}
}

// Search geocodes query. Blank queries return ErrEmptyQuery without a lookup.
func (s *Service) Search(ctx context.Context, query string) (types.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Place{}, ErrEmptyQuery
	}
	p, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		s.log.Debug("geocode failed", zap.String("query", query), zap.Error(err))
		return types.Place{}, err
	}
	return p, nil
}
