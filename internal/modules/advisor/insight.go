package advisor

import (
	"fmt"
	"strings"
)

const optimalFare = "This fare is optimal based on current conditions"

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Insight is a rule-based explanation and recommendation for a predicted
// fare, used when the predictor leaves them empty.
type Insight struct {
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

func Explain(f Features, fare float64) Insight {
	return Insight{
		Explanation:    explanation(f, fare),
		Recommendation: recommendation(f, fare),
	}
}

func weekdayName(f Features) string {
	if f.Weekday < 0 || f.Weekday >= len(weekdayNames) {
		return ""
	}
	return weekdayNames[f.Weekday]
}

func pricierDay(f Features) bool {
	d := weekdayName(f)
	return d == "Thursday" || d == "Sunday"
}

func distanceWord(km float64) string {
	switch {
	case km < 1:
		return "very short"
	case km < 2:
		return "short"
	case km < 5:
		return "medium"
	case km < 10:
		return "long"
	default:
		return "very long"
	}
}

func explanation(f Features, fare float64) string {
	factors := []string{fmt.Sprintf("a %s trip distance of %.2f km", distanceWord(f.DistanceKm), f.DistanceKm)}

	switch f.Hour {
	case 5, 6:
		factors = append(factors, "early morning travel (typically higher fares)")
	case 15, 16:
		factors = append(factors, "afternoon peak travel time")
	}
	if f.RushHour {
		factors = append(factors, "rush hour pricing")
	}
	if pricierDay(f) {
		factors = append(factors, weekdayName(f)+" travel (historically higher fares)")
	}
	if f.PassengerCount == 1 {
		factors = append(factors, "solo trip (higher per-passenger fare)")
	} else {
		factors = append(factors, fmt.Sprintf("shared trip with %d passengers", f.PassengerCount))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your estimated fare of $%.2f is based on %s", fare, factors[0])
	for i, factor := range factors[1:] {
		if i == len(factors)-2 {
			fmt.Fprintf(&b, ", and %s.", factor)
		} else {
			fmt.Fprintf(&b, ", %s", factor)
		}
	}
	if len(factors) == 1 {
		b.WriteString(".")
	}
	return b.String()
}

func recommendation(f Features, fare float64) string {
	var recs []string
	if f.RushHour {
		recs = append(recs, "Consider traveling outside rush hours (7-9 AM, 4-7 PM) for potentially lower fares")
	}
	switch f.Hour {
	case 5, 6:
		recs = append(recs, "Shifting your trip to 7-8 AM could reduce the fare")
	case 15, 16:
		recs = append(recs, "Shifting your trip to 1-2 PM could reduce the fare")
	}
	if pricierDay(f) {
		recs = append(recs, fmt.Sprintf("If flexible, consider traveling on days other than %s for potentially lower fares", weekdayName(f)))
	}
	if f.PassengerCount == 1 && fare > 10 {
		recs = append(recs, "Sharing your ride with others could make this trip more cost-effective per person")
	}
	if f.DistanceKm > 5 {
		recs = append(recs, "For this longer trip, exploring alternate routes might offer savings")
	}

	switch len(recs) {
	case 0:
		return optimalFare
	case 1:
		return recs[0]
	default:
		return recs[0] + ". Additionally, " + strings.ToLower(recs[1])
	}
}
