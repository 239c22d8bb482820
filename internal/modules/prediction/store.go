package prediction

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"farecast/internal/types"
)

// QuoteStore persists quotes.
type QuoteStore interface {
	Record(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id types.ID) (*Quote, error)
	ListBySession(ctx context.Context, sessionID types.ID, limit int) ([]Quote, error)
}

// Store keeps quotes in PostgreSQL (table fare_quotes).
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, q *Quote) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO fare_quotes (
            id, session_id, pickup_datetime,
            pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
            passenger_count, predicted_fare, explanation, recommendation, created_at
        ) VALUES (
            $1, $2, $3,
            $4, $5, $6, $7,
            $8, $9, $10, $11, $12
        )`,
		string(q.ID),
		string(q.SessionID),
		q.Request.PickupDatetime,
		q.Request.PickupLatitude, q.Request.PickupLongitude,
		q.Request.DropoffLatitude, q.Request.DropoffLongitude,
		q.Request.PassengerCount,
		q.Result.PredictedFare,
		q.Result.Explanation,
		q.Result.Recommendation,
		q.CreatedAt,
	)
	return err
}

const quoteColumns = `
        id, session_id, pickup_datetime,
        pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
        passenger_count, predicted_fare, explanation, recommendation, created_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.SessionID, &q.Request.PickupDatetime,
		&q.Request.PickupLatitude, &q.Request.PickupLongitude,
		&q.Request.DropoffLatitude, &q.Request.DropoffLongitude,
		&q.Request.PassengerCount, &q.Result.PredictedFare,
		&q.Result.Explanation, &q.Result.Recommendation, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Quote, error) {
	q, err := scanQuote(s.db.QueryRow(ctx, `SELECT`+quoteColumns+` FROM fare_quotes WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

// ListBySession returns the newest quotes of a session first.
func (s *Store) ListBySession(ctx context.Context, sessionID types.ID, limit int) ([]Quote, error) {
	rows, err := s.db.Query(ctx, `SELECT`+quoteColumns+`
        FROM fare_quotes
        WHERE session_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, string(sessionID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// MemoryStore keeps the most recent quotes per session in process. It is the
// quote log when no database is configured.
type MemoryStore struct {
	mu        sync.Mutex
	perSess   int
	bySession map[types.ID][]Quote
	byID      map[types.ID]Quote
}

func NewMemoryStore(perSession int) *MemoryStore {
	if perSession <= 0 {
		perSession = 50
	}
	return &MemoryStore{
		perSess:   perSession,
		bySession: make(map[types.ID][]Quote),
		byID:      make(map[types.ID]Quote),
	}
}

func (m *MemoryStore) Record(_ context.Context, q *Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.bySession[q.SessionID], *q)
	if len(list) > m.perSess {
		delete(m.byID, list[0].ID)
		list = list[1:]
	}
	m.bySession[q.SessionID] = list
	m.byID[q.ID] = *q
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id types.ID) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *MemoryStore) ListBySession(_ context.Context, sessionID types.ID, limit int) ([]Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.bySession[sessionID]
	out := make([]Quote, 0, len(list))
	for i := len(list) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, list[i])
	}
	return out, nil
}

// Forget drops a session's quotes.
func (m *MemoryStore) Forget(sessionID types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.bySession[sessionID] {
		delete(m.byID, q.ID)
	}
	delete(m.bySession, sessionID)
}
