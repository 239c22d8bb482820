package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farecast/internal/modules/advisor"
)

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestFareAdvisor_Recommend(t *testing.T) {
	gen := &stubGenerator{reply: "```\n**Share** the ride\n to save money.\n```"}
	a := NewFareAdvisor(gen)

	got, err := a.Recommend(context.Background(), advisor.Features{
		DistanceKm:     4.838,
		PassengerCount: 2,
		Hour:           8,
		Day:            1,
		Month:          5,
		Year:           2024,
		Weekday:        2,
		RushHour:       true,
	}, 23.4)
	require.NoError(t, err)
	assert.Equal(t, "Share the ride to save money.", got)

	assert.Contains(t, gen.prompt, "Distance: 4.84 km")
	assert.Contains(t, gen.prompt, "Passengers: 2")
	assert.Contains(t, gen.prompt, "2024-05-01 08:00 (Wednesday)")
	assert.Contains(t, gen.prompt, "Rush hour: true")
	assert.Contains(t, gen.prompt, "Predicted fare: $23.40")
}

func TestFareAdvisor_GeneratorError(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := NewFareAdvisor(&stubGenerator{err: boom})
	_, err := a.Recommend(context.Background(), advisor.Features{}, 10)
	assert.ErrorIs(t, err, boom)
}

func TestCleanReply_Caps(t *testing.T) {
	long := strings.Repeat("a", maxRecommendationRunes+50)
	got := cleanReply(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), maxRecommendationRunes+3)
}

func TestBuildPrompt_UnknownWeekday(t *testing.T) {
	assert.Contains(t, buildPrompt(advisor.Features{Weekday: 9}, 1), "unknown day")
}
