package trip

import (
	"math"
	"strings"
	"time"

	"farecast/internal/types"
)

// NewDescriptor returns the empty descriptor a session starts with.
func NewDescriptor() *Descriptor {
	return &Descriptor{
		PassengerCount: MinPassengers,
		NextTarget:     TargetPickup,
	}
}

// SelectLocation fills the endpoint named by NextTarget and flips the target.
// Range is not checked; only NaN and infinities are refused.
func (d *Descriptor) SelectLocation(lat, lng float64) (Target, error) {
	if !finite(lat) || !finite(lng) {
		return d.NextTarget, ErrInvalidCoordinate
	}
	filled := d.NextTarget
	p := &types.Point{Lat: lat, Lng: lng}
	if filled == TargetPickup {
		d.Pickup = p
	} else {
		d.Dropoff = p
	}
	d.NextTarget = filled.next()
	return filled, nil
}

// Reset clears both endpoints and points the next selection at pickup.
func (d *Descriptor) Reset() {
	d.Pickup = nil
	d.Dropoff = nil
	d.NextTarget = TargetPickup
}

func (d *Descriptor) SetPassengerCount(n int) error {
	if n < MinPassengers || n > MaxPassengers {
		return ErrInvalidPassengerCount
	}
	d.PassengerCount = n
	return nil
}

// SetPickupTime parses s in PickupTimeLayout. An empty string clears the time.
func (d *Descriptor) SetPickupTime(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.PickupTime = time.Time{}
		return nil
	}
	t, err := time.Parse(PickupTimeLayout, s)
	if err != nil {
		return ErrInvalidPickupTime
	}
	d.PickupTime = t
	return nil
}

// SetPickupNow stamps the pickup time with now in UTC, to the second.
func (d *Descriptor) SetPickupNow(now time.Time) {
	d.PickupTime = now.UTC().Truncate(time.Second)
}

// HasRoute reports whether both endpoints are set.
func (d *Descriptor) HasRoute() bool {
	return d.Pickup != nil && d.Dropoff != nil
}

// Ready reports whether the descriptor can be submitted for a prediction.
func (d *Descriptor) Ready() bool {
	return d.HasRoute() && !d.PickupTime.IsZero()
}

// Request builds the prediction payload.
func (d *Descriptor) Request() (Request, error) {
	if !d.Ready() {
		return Request{}, ErrIncompleteTrip
	}
	return Request{
		PickupDatetime:   d.PickupTime.Format(PickupTimeLayout),
		PickupLongitude:  d.Pickup.Lng,
		PickupLatitude:   d.Pickup.Lat,
		DropoffLongitude: d.Dropoff.Lng,
		DropoffLatitude:  d.Dropoff.Lat,
		PassengerCount:   d.PassengerCount,
	}, nil
}

func (d *Descriptor) View() View {
	v := View{
		PassengerCount: d.PassengerCount,
		NextTarget:     d.NextTarget,
	}
	if !d.PickupTime.IsZero() {
		v.PickupDatetime = d.PickupTime.Format(PickupTimeLayout)
	}
	if d.Pickup != nil {
		p := *d.Pickup
		v.Pickup = &p
	}
	if d.Dropoff != nil {
		p := *d.Dropoff
		v.Dropoff = &p
	}
	return v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
