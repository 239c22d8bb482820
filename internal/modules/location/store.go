// README: Geocode cache backed by Redis.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"farecast/internal/metrics"
	"farecast/internal/types"
)

const geocodeKeyPrefix = "geocode:"

// CachedGeocoder answers repeated queries from Redis and only asks next on a
// miss. Redis failures fall through to next.
type CachedGeocoder struct {
	next    Geocoder
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration, m *metrics.Collector, log *zap.Logger) *CachedGeocoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedGeocoder{next: next, redis: rdb, ttl: ttl, metrics: m, log: log}
}

func geocodeKey(query string) string {
	return geocodeKeyPrefix + NormalizeQuery(query)
}

func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (types.Place, error) {
	key := geocodeKey(query)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p types.Place
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			c.metrics.GeocodeLookup("hit")
			return p, nil
		}
		c.metrics.GeocodeLookup("error")
	case errors.Is(err, redis.Nil):
		c.metrics.GeocodeLookup("miss")
	default:
		c.metrics.GeocodeLookup("error")
		c.log.Warn("geocode cache get", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.Geocode(ctx, query)
	if err != nil {
		return types.Place{}, err
	}
	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.redis.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Warn("geocode cache set", zap.String("key", key), zap.Error(serr))
		}
	}
	return p, nil
}
