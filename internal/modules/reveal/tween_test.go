package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFareTween_EndsExactlyOnTarget(t *testing.T) {
	loop := NewManualLoop()
	var ticks []float64
	var done []float64
	tw := NewFareTween(loop, func(v float64) { ticks = append(ticks, v) }, func(v float64) { done = append(done, v) })

	tw.Start(47.5)
	assert.Equal(t, PhaseTweening, tw.Phase())
	assert.Equal(t, 0.0, tw.Value())

	loop.Advance(TweenInterval * (TweenSteps - 1))
	assert.Equal(t, PhaseTweening, tw.Phase())
	assert.Len(t, ticks, TweenSteps-1)
	assert.Empty(t, done)

	loop.Advance(TweenInterval)
	require.Equal(t, PhaseDone, tw.Phase())
	assert.Equal(t, 47.5, tw.Value())
	assert.Equal(t, []float64{47.5}, done)
	assert.Len(t, ticks, TweenSteps)
	assert.Zero(t, loop.Active())

	// nothing fires once done
	loop.Advance(TweenDuration)
	assert.Len(t, ticks, TweenSteps)
}

func TestFareTween_MonotonicSteps(t *testing.T) {
	loop := NewManualLoop()
	var ticks []float64
	tw := NewFareTween(loop, func(v float64) { ticks = append(ticks, v) }, nil)
	tw.Start(100)
	loop.Advance(TweenDuration)

	require.Len(t, ticks, TweenSteps)
	for i := 1; i < len(ticks); i++ {
		assert.Greater(t, ticks[i], ticks[i-1])
	}
	assert.InDelta(t, 4.0, ticks[0], 1e-9)
	assert.Equal(t, 100.0, ticks[len(ticks)-1])
}

func TestFareTween_DurationIs1500ms(t *testing.T) {
	loop := NewManualLoop()
	tw := NewFareTween(loop, nil, nil)
	tw.Start(10)
	loop.Advance(TweenDuration - 1)
	assert.Equal(t, PhaseTweening, tw.Phase())
	loop.Advance(1)
	assert.Equal(t, PhaseDone, tw.Phase())
}

func TestFareTween_RestartKeepsOneTimer(t *testing.T) {
	loop := NewManualLoop()
	doneCount := 0
	tw := NewFareTween(loop, nil, func(float64) { doneCount++ })

	tw.Start(20)
	loop.Advance(TweenInterval * 5)
	tw.Start(30)
	assert.Equal(t, 1, loop.Active())
	assert.Equal(t, 0.0, tw.Value())
	assert.Equal(t, 0, tw.Step())

	loop.Advance(TweenDuration)
	assert.Equal(t, 30.0, tw.Value())
	assert.Equal(t, 1, doneCount)
}

func TestFareTween_StopCancels(t *testing.T) {
	loop := NewManualLoop()
	tw := NewFareTween(loop, nil, nil)
	tw.Start(10)
	loop.Advance(TweenInterval * 3)
	v := tw.Value()

	tw.Stop()
	assert.Zero(t, loop.Active())
	assert.Equal(t, PhaseStopped, tw.Phase())
	loop.Advance(TweenDuration)
	assert.Equal(t, v, tw.Value())
	assert.Equal(t, PhaseStopped, tw.Phase())

	tw.Start(10)
	assert.Equal(t, PhaseTweening, tw.Phase())
}

func TestFareTween_Reset(t *testing.T) {
	loop := NewManualLoop()
	tw := NewFareTween(loop, nil, nil)
	tw.Start(10)
	loop.Advance(TweenInterval * 3)
	tw.Reset()
	assert.Equal(t, PhaseIdle, tw.Phase())
	assert.Zero(t, tw.Value())
	assert.Zero(t, loop.Active())
}
