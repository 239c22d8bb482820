// README: Live travel tips from straight-line distance, plus the trip features fed to the AI recommender.
package advisor

const (
	ShortTrip    = "Short trip detected (under 1 mile). Consider walking or biking for eco-friendly travel."
	MediumTrip   = "Medium distance trip (1-3 miles). Standard Uber recommended for quick and efficient transport."
	LongerTrip   = "Longer trip detected (3-10 miles). UberX or UberXL recommended depending on your party size."
	LongDistTrip = "Long distance journey (over 10 miles). Consider UberXL or BLACK for maximum comfort on this extended ride."
)

// Features describes a requested trip the way the fare model sees it.
type Features struct {
	DistanceKm     float64 `json:"distance_km"`
	PassengerCount int     `json:"passenger_count"`
	Hour           int     `json:"hour"`
	Day            int     `json:"day"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
	// Weekday counts from Monday = 0.
	Weekday  int  `json:"weekday"`
	Weekend  bool `json:"is_weekend"`
	RushHour bool `json:"is_rush_hour"`
}
