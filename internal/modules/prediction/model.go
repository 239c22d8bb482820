// README: Fare prediction client, quote log and quote events.
package prediction

import (
	"errors"
	"fmt"
	"time"

	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

var (
	ErrUnavailable = errors.New("fare predictor unavailable")
	ErrNotFound    = errors.New("quote not found")
)

// StatusError is returned when the predictor answers with a non-2xx status.
// Its message is shown to the user verbatim.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// Result is the predictor's answer. It is never modified once applied to a session.
type Result struct {
	PredictedFare  float64 `json:"predicted_fare"`
	Explanation    string  `json:"explanation"`
	Recommendation string  `json:"recommendation"`
}

// Quote is one successful prediction, kept for history.
type Quote struct {
	ID        types.ID     `json:"id"`
	SessionID types.ID     `json:"session_id"`
	Request   trip.Request `json:"request"`
	Result    Result       `json:"result"`
	CreatedAt time.Time    `json:"created_at"`
}

// QuoteEvent is the message published for every quote.
type QuoteEvent struct {
	QuoteID        string    `json:"quoteId"`
	SessionID      string    `json:"sessionId"`
	PredictedFare  float64   `json:"predictedFare"`
	PassengerCount int       `json:"passengerCount"`
	DistanceMiles  float64   `json:"distanceMiles"`
	PickupDatetime string    `json:"pickupDatetime"`
	Timestamp      time.Time `json:"timestamp"`
}
