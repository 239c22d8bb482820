// README: Fare session: one user's trip, live tip, prediction and reveal animations on a single event loop.
package session

import (
	"context"
	"errors"
	"time"

	"farecast/internal/maps"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/reveal"
	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrClosed             = errors.New("session closed")
	ErrPredictionInFlight = errors.New("a fare request is already in flight")
	ErrSearchUnavailable  = errors.New("place search is not configured")
)

// Source says where the streamed text came from.
type Source string

const (
	SourceNone       Source = ""
	SourceLive       Source = "live"
	SourcePrediction Source = "prediction"
)

type FrameKind string

const (
	FrameState FrameKind = "state"
	FrameFare  FrameKind = "fare"
	FrameText  FrameKind = "text"
	FrameError FrameKind = "error"
)

// Frame is one UI update pushed to subscribers.
type Frame struct {
	Kind    FrameKind `json:"kind"`
	Payload any       `json:"payload"`
}

type FareView struct {
	Value   float64      `json:"value"`
	Display string       `json:"display"`
	Phase   reveal.Phase `json:"phase"`
}

type TextView struct {
	Text   string       `json:"text"`
	Source Source       `json:"source"`
	Phase  reveal.Phase `json:"phase"`
}

type ErrorView struct {
	Message string `json:"message"`
}

// Snapshot is the full render state of a session.
type Snapshot struct {
	ID                 types.ID           `json:"id"`
	Trip               trip.View          `json:"trip"`
	LiveRecommendation string             `json:"live_recommendation,omitempty"`
	Prediction         *prediction.Result `json:"prediction,omitempty"`
	Loading            bool               `json:"loading"`
	Error              string             `json:"error,omitempty"`
	Fare               FareView           `json:"fare"`
	Text               TextView           `json:"text"`
	CanSubmit          bool               `json:"can_submit"`
}

// Selection is the outcome of a place search fed into the trip.
type Selection struct {
	Place  types.Place `json:"place"`
	Filled trip.Target `json:"filled"`
}

type RouteSource string

const (
	RouteNone       RouteSource = ""
	RouteStraight   RouteSource = "straight"
	RouteDirections RouteSource = "directions"
)

// MapView is what the map widget draws: markers and a route line.
type MapView struct {
	Pickup          *types.Point  `json:"pickup,omitempty"`
	Dropoff         *types.Point  `json:"dropoff,omitempty"`
	NextTarget      trip.Target   `json:"next_target"`
	Route           []types.Point `json:"route,omitempty"`
	RouteSource     RouteSource   `json:"route_source,omitempty"`
	DistanceMiles   float64       `json:"distance_miles,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
}

// Predictor fetches a fare for a session.
type Predictor interface {
	Predict(ctx context.Context, sessionID types.ID, req trip.Request) (prediction.Result, error)
}

// Places resolves search-box queries.
type Places interface {
	Search(ctx context.Context, query string) (types.Place, error)
}

// Router draws a driving route between two points.
type Router interface {
	Route(ctx context.Context, origin, destination types.Point) (maps.Route, error)
}

// NewLoopFunc builds the event loop a new session runs on.
type NewLoopFunc func() reveal.Loop

const frameBuffer = 64

const defaultRouteTimeout = 5 * time.Second
