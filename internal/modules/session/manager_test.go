package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farecast/internal/metrics"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/reveal"
	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(ttl time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{now: fixedNow}
	deps := Deps{Predictor: &fakePredictor{}, Metrics: metrics.NewCollector(), Now: clock.Now}
	m := NewManager(deps, func() reveal.Loop { return reveal.NewManualLoop() }, ttl)
	return m, clock
}

func TestManager_CreateGetClose(t *testing.T) {
	m, _ := newTestManager(time.Minute)

	a := m.Create()
	b := m.Create()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = m.Get(types.ID("nope"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Close(a.ID()))
	assert.ErrorIs(t, m.Close(a.ID()), ErrNotFound)
	_, err = a.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, m.Len())
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	m, clock := newTestManager(10 * time.Minute)
	idle := m.Create()
	clock.Add(6 * time.Minute)
	busy := m.Create()
	watched := m.Create()
	_, cancel, err := watched.Subscribe()
	require.NoError(t, err)
	defer cancel()

	clock.Add(5 * time.Minute)
	require.NoError(t, busy.SetPassengerCount(2))

	assert.Equal(t, 1, m.Sweep())
	_, err = m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	clock.Add(time.Hour)
	assert.Equal(t, 1, m.Sweep(), "subscribed session survives")
	_, err = m.Get(watched.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunSweeperStopsWithContext(t *testing.T) {
	m, clock := newTestManager(time.Minute)
	m.Create()
	clock.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestManager_Shutdown(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	s := m.Create()
	frames, _, err := s.Subscribe()
	require.NoError(t, err)
	<-frames
	m.Create()

	m.Shutdown()
	assert.Zero(t, m.Len())
	_, open := <-frames
	assert.False(t, open)
}

type recordingPredictor struct{ res prediction.Result }

func (r recordingPredictor) Predict(context.Context, trip.Request) (prediction.Result, error) {
	return r.res, nil
}

func TestManager_ClosedSessionsReleaseQuoteHistory(t *testing.T) {
	ctx := context.Background()
	fares := prediction.NewService(recordingPredictor{res: prediction.Result{PredictedFare: 20, Recommendation: "ok"}}, nil)
	clock := &fakeClock{now: fixedNow}
	deps := Deps{Predictor: fares, Now: clock.Now, OnClose: fares.Forget}
	m := NewManager(deps, func() reveal.Loop { return reveal.NewManualLoop() }, time.Minute)

	var ids []types.ID
	for range 3 {
		s := m.Create()
		require.NoError(t, s.SetPickupNow())
		selectRoute(t, s, empireState, eastVillage)
		require.NoError(t, s.Submit())
		require.Eventually(t, func() bool {
			q, err := fares.History(ctx, s.ID())
			return err == nil && len(q) == 1
		}, 2*time.Second, time.Millisecond)
		ids = append(ids, s.ID())
	}

	require.NoError(t, m.Close(ids[0]))
	clock.Add(time.Hour)
	assert.Equal(t, 2, m.Sweep())
	m.Shutdown()

	for _, id := range ids {
		q, err := fares.History(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, q, "session %s", id)
	}
}

func TestManager_OnCloseRunsForEveryReason(t *testing.T) {
	var closed []types.ID
	deps := Deps{Predictor: &fakePredictor{}, Now: func() time.Time { return fixedNow }, OnClose: func(id types.ID) {
		closed = append(closed, id)
	}}
	m := NewManager(deps, func() reveal.Loop { return reveal.NewManualLoop() }, time.Minute)

	a := m.Create()
	b := m.Create()
	require.NoError(t, m.Close(a.ID()))
	assert.ErrorIs(t, m.Close(a.ID()), ErrNotFound)
	m.Shutdown()

	assert.Equal(t, []types.ID{a.ID(), b.ID()}, closed)
}

func TestManager_DefaultEventLoop(t *testing.T) {
	m := NewManager(Deps{Predictor: &fakePredictor{}}, nil, time.Minute)
	s := m.Create()
	defer m.Shutdown()

	_, err := s.SelectLocation(empireState.Lat, empireState.Lng)
	require.NoError(t, err)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, empireState, *snap.Trip.Pickup)
}
