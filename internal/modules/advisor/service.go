package advisor

import (
	"fmt"
	"time"

	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

// ForDistance maps a distance in miles to one of the four travel tips.
// Bands are half-open: [0,1) [1,3) [3,10) [10,inf).
func ForDistance(miles float64) string {
	switch {
	case miles < 1:
		return ShortTrip
	case miles < 3:
		return MediumTrip
	case miles < 10:
		return LongerTrip
	default:
		return LongDistTrip
	}
}

// Recommend returns the travel tip for a trip between pickup and dropoff.
func Recommend(pickup, dropoff types.Point) string {
	return ForDistance(DistanceMiles(pickup, dropoff))
}

// ExtractFeatures derives the model features of a prediction request.
func ExtractFeatures(req trip.Request) (Features, error) {
	t, err := time.Parse(trip.PickupTimeLayout, req.PickupDatetime)
	if err != nil {
		return Features{}, fmt.Errorf("parse pickup_datetime: %w", trip.ErrInvalidPickupTime)
	}
	pickup := types.Point{Lat: req.PickupLatitude, Lng: req.PickupLongitude}
	dropoff := types.Point{Lat: req.DropoffLatitude, Lng: req.DropoffLongitude}

	weekday := (int(t.Weekday()) + 6) % 7
	weekend := weekday >= 5
	h := t.Hour()

	return Features{
		DistanceKm:     DistanceKm(pickup, dropoff),
		PassengerCount: req.PassengerCount,
		Hour:           h,
		Day:            t.Day(),
		Month:          int(t.Month()),
		Year:           t.Year(),
		Weekday:        weekday,
		Weekend:        weekend,
		RushHour:       !weekend && ((h >= 7 && h <= 9) || (h >= 16 && h <= 19)),
	}, nil
}
