package ai

import (
	"context"
	"fmt"
	"strings"

	"farecast/internal/modules/advisor"
)

const systemInstruction = `You are the travel assistant of a ride fare estimator.
Given a trip and its predicted fare, reply with ONE or TWO short sentences of practical advice
that could lower the cost or improve the ride. Plain text only, no markdown, no lists, no greeting.`

const maxRecommendationRunes = 400

var weekdays = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// FareAdvisor asks a Generator for a travel recommendation.
type FareAdvisor struct {
	gen Generator
}

func NewFareAdvisor(gen Generator) *FareAdvisor {
	return &FareAdvisor{gen: gen}
}

// Recommend returns a short plain-text tip for a trip priced at fare.
func (a *FareAdvisor) Recommend(ctx context.Context, f advisor.Features, fare float64) (string, error) {
	out, err := a.gen.Generate(ctx, buildPrompt(f, fare))
	if err != nil {
		return "", err
	}
	return cleanReply(out), nil
}

func buildPrompt(f advisor.Features, fare float64) string {
	day := "unknown day"
	if f.Weekday >= 0 && f.Weekday < len(weekdays) {
		day = weekdays[f.Weekday]
	}
	return fmt.Sprintf(`Trip:
- Distance: %.2f km
- Passengers: %d
- Pickup: %04d-%02d-%02d %02d:00 (%s)
- Weekend: %t
- Rush hour: %t
Predicted fare: $%.2f`,
		f.DistanceKm, f.PassengerCount,
		f.Year, f.Month, f.Day, f.Hour, day,
		f.Weekend, f.RushHour, fare)
}

// cleanReply strips markdown the model sometimes adds anyway and caps the length.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxRecommendationRunes {
		s = strings.TrimSpace(string(r[:maxRecommendationRunes])) + "..."
	}
	return s
}
