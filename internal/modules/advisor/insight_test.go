package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplain_SoloRushHour(t *testing.T) {
	in := Explain(Features{
		DistanceKm:     4.838,
		PassengerCount: 1,
		Hour:           8,
		Weekday:        2,
		RushHour:       true,
	}, 18.5)

	assert.Equal(t,
		"Your estimated fare of $18.50 is based on a medium trip distance of 4.84 km, rush hour pricing, and solo trip (higher per-passenger fare).",
		in.Explanation)
	assert.Equal(t,
		"Consider traveling outside rush hours (7-9 AM, 4-7 PM) for potentially lower fares. Additionally, sharing your ride with others could make this trip more cost-effective per person",
		in.Recommendation)
}

func TestExplain_QuietTrip(t *testing.T) {
	in := Explain(Features{
		DistanceKm:     0.5,
		PassengerCount: 3,
		Hour:           12,
		Weekday:        5,
		Weekend:        true,
	}, 6)

	assert.Equal(t,
		"Your estimated fare of $6.00 is based on a very short trip distance of 0.50 km, and shared trip with 3 passengers.",
		in.Explanation)
	assert.Equal(t, "This fare is optimal based on current conditions", in.Recommendation)
}

func TestExplain_SundayAfternoonLongTrip(t *testing.T) {
	in := Explain(Features{
		DistanceKm:     12,
		PassengerCount: 2,
		Hour:           15,
		Weekday:        6,
		Weekend:        true,
	}, 40)

	assert.Equal(t,
		"Your estimated fare of $40.00 is based on a very long trip distance of 12.00 km, afternoon peak travel time, Sunday travel (historically higher fares), and shared trip with 2 passengers.",
		in.Explanation)
	assert.Equal(t,
		"Shifting your trip to 1-2 PM could reduce the fare. Additionally, if flexible, consider traveling on days other than sunday for potentially lower fares",
		in.Recommendation)
}

func TestDistanceWord(t *testing.T) {
	cases := map[float64]string{0: "very short", 1: "short", 2: "medium", 5: "long", 10: "very long"}
	for km, want := range cases {
		assert.Equal(t, want, distanceWord(km), "km=%v", km)
	}
}
