// README: Trip descriptor built up by map selections and form edits before a fare request.
package trip

import (
	"errors"
	"time"

	"farecast/internal/types"
)

// PickupTimeLayout is the wall-clock format the prediction endpoint expects.
const PickupTimeLayout = "2006-01-02 15:04:05"

const (
	MinPassengers = 1
	MaxPassengers = 6
)

var (
	ErrInvalidCoordinate     = errors.New("coordinate must be a finite number")
	ErrInvalidPassengerCount = errors.New("passenger count must be between 1 and 6")
	ErrInvalidPickupTime     = errors.New("pickup time must use YYYY-MM-DD HH:MM:SS")
	ErrIncompleteTrip        = errors.New("pickup, dropoff and pickup time are required")
)

// Target says which endpoint the next location selection fills.
type Target string

const (
	TargetPickup  Target = "pickup"
	TargetDropoff Target = "dropoff"
)

func (t Target) next() Target {
	if t == TargetPickup {
		return TargetDropoff
	}
	return TargetPickup
}

// Descriptor is the mutable trip state owned by a single session.
type Descriptor struct {
	PickupTime     time.Time
	Pickup         *types.Point
	Dropoff        *types.Point
	PassengerCount int
	NextTarget     Target
}

// Request is the wire payload of the prediction endpoint.
type Request struct {
	PickupDatetime   string  `json:"pickup_datetime"`
	PickupLongitude  float64 `json:"pickup_longitude"`
	PickupLatitude   float64 `json:"pickup_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	PassengerCount   int     `json:"passenger_count"`
}

// View is the JSON shape of a descriptor in session snapshots.
type View struct {
	PickupDatetime string       `json:"pickup_datetime"`
	Pickup         *types.Point `json:"pickup,omitempty"`
	Dropoff        *types.Point `json:"dropoff,omitempty"`
	PassengerCount int          `json:"passenger_count"`
	NextTarget     Target       `json:"next_target"`
}
