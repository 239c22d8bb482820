package prediction

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farecast/internal/types"
)

func TestMemoryStore_NewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(2)
	for i, id := range []types.ID{"q1", "q2", "q3"} {
		require.NoError(t, m.Record(ctx, &Quote{ID: id, SessionID: "s", Result: Result{PredictedFare: float64(i)}}))
	}
	require.NoError(t, m.Record(ctx, &Quote{ID: "other", SessionID: "t"}))

	list, err := m.ListBySession(ctx, "s", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, types.ID("q3"), list[0].ID)
	assert.Equal(t, types.ID("q2"), list[1].ID)

	_, err = m.Get(ctx, "q1")
	assert.ErrorIs(t, err, ErrNotFound)

	list, _ = m.ListBySession(ctx, "s", 1)
	assert.Len(t, list, 1)

	m.Forget("s")
	list, _ = m.ListBySession(ctx, "s", 10)
	assert.Empty(t, list)
	_, err = m.Get(ctx, "other")
	assert.NoError(t, err)
}

func TestStore_RecordAndList(t *testing.T) {
	dsn := os.Getenv("FARECAST_TEST_DSN")
	if dsn == "" {
		t.Skip("FARECAST_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	schema, err := os.ReadFile("../../../migrations/0001_fare_quotes.sql")
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)

	store := NewStore(db)
	session := types.ID(uuid.NewString())
	older := &Quote{
		ID:        types.ID(uuid.NewString()),
		SessionID: session,
		Request:   sampleRequest,
		Result:    Result{PredictedFare: 12.5, Explanation: "e1", Recommendation: "r1"},
		CreatedAt: time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond),
	}
	newer := &Quote{
		ID:        types.ID(uuid.NewString()),
		SessionID: session,
		Request:   sampleRequest,
		Result:    Result{PredictedFare: 13.5, Explanation: "e2", Recommendation: "r2"},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Record(ctx, older))
	require.NoError(t, store.Record(ctx, newer))

	list, err := store.ListBySession(ctx, session, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, sampleRequest, list[1].Request)
	assert.Equal(t, older.Result, list[1].Result)

	got, err := store.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, older.CreatedAt.Equal(got.CreatedAt))

	_, err = store.Get(ctx, types.ID(uuid.NewString()))
	assert.ErrorIs(t, err, ErrNotFound)
}
