package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farecast/internal/metrics"
	"farecast/internal/modules/advisor"
	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

const historyLimit = 50

// Predictor is the remote fare model.
type Predictor interface {
	Predict(ctx context.Context, req trip.Request) (Result, error)
}

// Recommender writes a recommendation when the predictor returns none.
type Recommender interface {
	Recommend(ctx context.Context, f advisor.Features, fare float64) (string, error)
}

type Service struct {
	predictor   Predictor
	recommender Recommender
	store       QuoteStore
	publisher   Publisher
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithRecommender(r Recommender) Option { return func(s *Service) { s.recommender = r } }
func WithStore(st QuoteStore) Option       { return func(s *Service) { s.store = st } }
func WithPublisher(p Publisher) Option     { return func(s *Service) { s.publisher = p } }
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.metrics = m }
}
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService wraps a predictor. Without WithStore quotes are kept in memory.
func NewService(p Predictor, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		predictor: p,
		store:     NewMemoryStore(historyLimit),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict fetches a fare for req on behalf of sessionID. Failing to record or
// publish the quote is logged and does not fail the prediction.
func (s *Service) Predict(ctx context.Context, sessionID types.ID, req trip.Request) (Result, error) {
	start := s.now()
	res, err := s.predictor.Predict(ctx, req)
	s.metrics.ObservePrediction(outcome(err), s.now().Sub(start))
	if err != nil {
		s.log.Warn("prediction failed", zap.String("session_id", string(sessionID)), zap.Error(err))
		return Result{}, err
	}

	res = s.complete(ctx, req, res)

	q := &Quote{
		ID:        types.ID(uuid.NewString()),
		SessionID: sessionID,
		Request:   req,
		Result:    res,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Record(ctx, q); err != nil {
		s.metrics.QuoteRecordFailed()
		s.log.Error("record quote", zap.String("quote_id", string(q.ID)), zap.Error(err))
	}
	if s.publisher != nil {
		err := s.publisher.PublishQuote(ctx, quoteEvent(q))
		s.metrics.QuotePublished(err)
		if err != nil {
			s.log.Warn("publish quote event", zap.String("quote_id", string(q.ID)), zap.Error(err))
		}
	}

	s.log.Info("fare predicted",
		zap.String("session_id", string(sessionID)),
		zap.String("quote_id", string(q.ID)),
		zap.Float64("fare", res.PredictedFare),
	)
	return res, nil
}

// complete fills an empty recommendation from the AI recommender, then any
// remaining gaps from the rule-based insight.
func (s *Service) complete(ctx context.Context, req trip.Request, res Result) Result {
	if res.Recommendation != "" && res.Explanation != "" {
		return res
	}
	f, err := advisor.ExtractFeatures(req)
	if err != nil {
		return res
	}
	if res.Recommendation == "" && s.recommender != nil {
		rec, err := s.recommender.Recommend(ctx, f, res.PredictedFare)
		if err != nil {
			s.log.Warn("ai recommendation failed", zap.Error(err))
		} else {
			res.Recommendation = rec
		}
	}
	if res.Recommendation == "" || res.Explanation == "" {
		in := advisor.Explain(f, res.PredictedFare)
		if res.Recommendation == "" {
			res.Recommendation = in.Recommendation
		}
		if res.Explanation == "" {
			res.Explanation = in.Explanation
		}
	}
	return res
}

// History lists the quotes of a session, newest first.
func (s *Service) History(ctx context.Context, sessionID types.ID) ([]Quote, error) {
	return s.store.ListBySession(ctx, sessionID, historyLimit)
}

func (s *Service) Quote(ctx context.Context, id types.ID) (*Quote, error) {
	return s.store.Get(ctx, id)
}

// Forget releases a closed session's history when quotes live in memory.
// Persistent stores keep theirs.
func (s *Service) Forget(sessionID types.ID) {
	if f, ok := s.store.(interface{ Forget(types.ID) }); ok {
		f.Forget(sessionID)
	}
}

func quoteEvent(q *Quote) QuoteEvent {
	pickup := types.Point{Lat: q.Request.PickupLatitude, Lng: q.Request.PickupLongitude}
	dropoff := types.Point{Lat: q.Request.DropoffLatitude, Lng: q.Request.DropoffLongitude}
	return QuoteEvent{
		QuoteID:        string(q.ID),
		SessionID:      string(q.SessionID),
		PredictedFare:  q.Result.PredictedFare,
		PassengerCount: q.Request.PassengerCount,
		DistanceMiles:  advisor.DistanceMiles(pickup, dropoff),
		PickupDatetime: q.Request.PickupDatetime,
		Timestamp:      q.CreatedAt,
	}
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
