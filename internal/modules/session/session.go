package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"farecast/internal/metrics"
	"farecast/internal/modules/advisor"
	"farecast/internal/modules/location"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/reveal"
	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

// Deps are the collaborators shared by every session. Only Predictor is required.
type Deps struct {
	Predictor Predictor
	Places    Places
	Routes    Router
	Metrics   *metrics.Collector
	Log       *zap.Logger
	Now       func() time.Time
	// OnClose runs after the manager closes a session.
	OnClose func(types.ID)
}

// Session owns one trip. All fields below loop are touched only on the loop.
type Session struct {
	id        types.ID
	deps      Deps
	log       *zap.Logger
	createdAt time.Time

	loop      reveal.Loop
	closeOnce sync.Once
	ctx       context.Context
	cancelAll context.CancelFunc

	lastActive  atomic.Int64
	subscribers atomic.Int32

	trip    *trip.Descriptor
	live    string
	result  *prediction.Result
	loading bool
	errMsg  string
	reqSeq  int
	cancel  context.CancelFunc
	tween   *reveal.FareTween
	stream  *reveal.TextStream
	source  Source
	subs    map[int]chan Frame
	nextSub int
	closed  bool
}

// New starts a session on loop. The session owns the loop and closes it.
func New(id types.ID, loop reveal.Loop, deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		deps:      deps,
		log:       deps.Log.With(zap.String("session_id", string(id))),
		createdAt: deps.Now(),
		loop:      loop,
		ctx:       ctx,
		cancelAll: cancel,
		trip:      trip.NewDescriptor(),
		subs:      make(map[int]chan Frame),
	}
	s.tween = reveal.NewFareTween(loop, s.onFareTick, s.onFareDone)
	s.stream = reveal.NewTextStream(loop, s.onTextTick, s.onTextDone)
	s.touch()
	return s
}

func (s *Session) ID() types.ID { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActive is the time of the last client operation.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Subscribers counts open frame subscriptions.
func (s *Session) Subscribers() int { return int(s.subscribers.Load()) }

func (s *Session) touch() { s.lastActive.Store(s.deps.Now().UnixNano()) }

// do runs fn on the loop unless the session is closed.
func (s *Session) do(fn func() error) error {
	var err error
	lerr := s.loop.Do(func() {
		if s.closed {
			err = ErrClosed
			return
		}
		err = fn()
	})
	if lerr != nil {
		return ErrClosed
	}
	s.touch()
	return err
}

// SelectLocation fills the next endpoint with a map click.
func (s *Session) SelectLocation(lat, lng float64) (trip.Target, error) {
	var filled trip.Target
	err := s.do(func() error {
		var err error
		filled, err = s.trip.SelectLocation(lat, lng)
		if err != nil {
			return err
		}
		s.tripChanged()
		return nil
	})
	return filled, err
}

// Reset clears both endpoints.
func (s *Session) Reset() error {
	return s.do(func() error {
		s.trip.Reset()
		s.tripChanged()
		return nil
	})
}

func (s *Session) SetPassengerCount(n int) error {
	return s.do(func() error {
		if err := s.trip.SetPassengerCount(n); err != nil {
			return err
		}
		s.tripChanged()
		return nil
	})
}

func (s *Session) SetPickupTime(value string) error {
	return s.do(func() error {
		if err := s.trip.SetPickupTime(value); err != nil {
			return err
		}
		s.tripChanged()
		return nil
	})
}

// SetPickupNow stamps the pickup time with the current time.
func (s *Session) SetPickupNow() error {
	return s.do(func() error {
		s.trip.SetPickupNow(s.deps.Now())
		s.tripChanged()
		return nil
	})
}

// tripChanged recomputes the live tip and restarts the live stream when the
// tip changed and no prediction is showing.
func (s *Session) tripChanged() {
	next := ""
	if s.trip.HasRoute() {
		next = advisor.Recommend(*s.trip.Pickup, *s.trip.Dropoff)
	}
	if next != s.live {
		s.live = next
		if s.result == nil {
			s.streamLive()
		}
	}
	s.broadcastState()
}

func (s *Session) streamLive() {
	if s.live == "" {
		if s.source == SourceLive {
			s.stream.Reset()
			s.source = SourceNone
		}
		return
	}
	s.source = SourceLive
	s.stream.Start(s.live)
}

// Submit sends the trip to the predictor. The request runs off the loop and
// its result is applied back on it.
func (s *Session) Submit() error {
	return s.do(func() error {
		if s.loading {
			return ErrPredictionInFlight
		}
		req, err := s.trip.Request()
		if err != nil {
			return err
		}

		s.loading = true
		s.errMsg = ""
		s.result = nil
		s.tween.Reset()
		s.stream.Reset()
		s.source = SourceNone
		if s.live != "" {
			s.streamLive()
		}

		s.reqSeq++
		seq := s.reqSeq
		ctx, cancel := context.WithCancel(s.ctx)
		s.cancel = cancel
		go func() {
			res, err := s.deps.Predictor.Predict(ctx, s.id, req)
			s.loop.Post(func() { s.applyPrediction(seq, res, err) })
		}()

		s.broadcastState()
		return nil
	})
}

func (s *Session) applyPrediction(seq int, res prediction.Result, err error) {
	if s.closed || seq != s.reqSeq {
		return
	}
	s.loading = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err != nil {
		s.errMsg = err.Error()
		s.log.Info("fare request failed", zap.Error(err))
		s.broadcast(Frame{Kind: FrameError, Payload: ErrorView{Message: s.errMsg}})
		s.broadcastState()
		return
	}

	r := res
	s.result = &r
	s.stream.Reset()
	s.source = SourceNone
	s.tween.Start(r.PredictedFare)
	s.broadcastState()
}

func (s *Session) onFareTick(v float64) {
	s.broadcast(Frame{Kind: FrameFare, Payload: s.fareView()})
}

func (s *Session) onFareDone(float64) {
	s.deps.Metrics.RevealFinished("tween")
	if s.result != nil && s.result.Recommendation != "" {
		s.source = SourcePrediction
		s.stream.Start(s.result.Recommendation)
	}
	s.broadcastState()
}

func (s *Session) onTextTick(string) {
	s.broadcast(Frame{Kind: FrameText, Payload: s.textView()})
}

func (s *Session) onTextDone(string) {
	s.deps.Metrics.RevealFinished(string(s.source) + "_stream")
	s.broadcastState()
}

func (s *Session) fareView() FareView {
	v := s.tween.Value()
	return FareView{Value: v, Display: types.Fare(v).Display(), Phase: s.tween.Phase()}
}

func (s *Session) textView() TextView {
	return TextView{Text: s.stream.Text(), Source: s.source, Phase: s.stream.Phase()}
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:                 s.id,
		Trip:               s.trip.View(),
		LiveRecommendation: s.live,
		Loading:            s.loading,
		Error:              s.errMsg,
		Fare:               s.fareView(),
		Text:               s.textView(),
		CanSubmit:          s.trip.Ready() && !s.loading,
	}
	if s.result != nil {
		r := *s.result
		snap.Prediction = &r
	}
	return snap
}

// Snapshot returns the current render state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// Subscribe streams frames, starting with a state frame. Frames are dropped
// for a subscriber whose buffer is full. The channel closes when the session
// closes or cancel is called.
func (s *Session) Subscribe() (<-chan Frame, func(), error) {
	ch := make(chan Frame, frameBuffer)
	var id int
	err := s.do(func() error {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = ch
		s.subscribers.Add(1)
		ch <- Frame{Kind: FrameState, Payload: s.snapshot()}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = s.loop.Do(func() { s.unsubscribe(id) })
		})
	}
	return ch, cancel, nil
}

func (s *Session) unsubscribe(id int) {
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
		s.subscribers.Add(-1)
	}
}

func (s *Session) broadcast(f Frame) {
	for _, ch := range s.subs {
		select {
		case ch <- f:
		default:
			s.deps.Metrics.FrameDropped()
		}
	}
}

func (s *Session) broadcastState() {
	if len(s.subs) == 0 {
		return
	}
	s.broadcast(Frame{Kind: FrameState, Payload: s.snapshot()})
}

// Search geocodes query and selects the hit as the next endpoint. A blank
// query does nothing and returns nil.
func (s *Session) Search(ctx context.Context, query string) (*Selection, error) {
	if s.deps.Places == nil {
		return nil, ErrSearchUnavailable
	}
	place, err := s.deps.Places.Search(ctx, query)
	if errors.Is(err, location.ErrEmptyQuery) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	filled, err := s.SelectLocation(place.Position.Lat, place.Position.Lng)
	if err != nil {
		return nil, err
	}
	return &Selection{Place: place, Filled: filled}, nil
}

// MapView returns the markers and the route line between them. The driving
// route is used when a router is configured and answers; otherwise the
// straight line between the endpoints.
func (s *Session) MapView(ctx context.Context) (MapView, error) {
	var view MapView
	err := s.do(func() error {
		v := s.trip.View()
		view = MapView{Pickup: v.Pickup, Dropoff: v.Dropoff, NextTarget: v.NextTarget}
		return nil
	})
	if err != nil || view.Pickup == nil || view.Dropoff == nil {
		return view, err
	}

	view.DistanceMiles = advisor.DistanceMiles(*view.Pickup, *view.Dropoff)
	view.Route = []types.Point{*view.Pickup, *view.Dropoff}
	view.RouteSource = RouteStraight
	if s.deps.Routes == nil {
		return view, nil
	}

	rctx, cancel := context.WithTimeout(ctx, defaultRouteTimeout)
	defer cancel()
	r, err := s.deps.Routes.Route(rctx, *view.Pickup, *view.Dropoff)
	if err != nil {
		s.log.Debug("route lookup failed, drawing straight line", zap.Error(err))
		return view, nil
	}
	view.Route = r.Path
	view.RouteSource = RouteDirections
	view.DurationSeconds = r.Duration.Seconds()
	return view, nil
}

// Close stops both animations, cancels an in-flight request, ends every
// subscription and stops the loop. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.loop.Do(func() {
			s.closed = true
			s.tween.Stop()
			s.stream.Stop()
			if s.cancel != nil {
				s.cancel()
				s.cancel = nil
			}
			for id := range s.subs {
				s.unsubscribe(id)
			}
		})
		s.cancelAll()
		s.loop.Close()
	})
}
