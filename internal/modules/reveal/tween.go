package reveal

// FareTween counts a displayed fare up from zero to its target in
// TweenSteps equal increments, TweenInterval apart. Not safe for concurrent
// use; every method and callback runs on the owning loop.
type FareTween struct {
	sched   Scheduler
	onTick  func(value float64)
	onDone  func(value float64)
	target  float64
	current float64
	step    int
	phase   Phase
	timer   Timer
}

// NewFareTween builds an idle tween. Either callback may be nil.
func NewFareTween(sched Scheduler, onTick, onDone func(float64)) *FareTween {
	return &FareTween{sched: sched, onTick: onTick, onDone: onDone, phase: PhaseIdle}
}

// Start restarts the count-up towards target, cancelling any running one.
func (t *FareTween) Start(target float64) {
	t.Stop()
	t.target = target
	t.current = 0
	t.step = 0
	t.phase = PhaseTweening
	t.timer = t.sched.Every(TweenInterval, t.tick)
}

func (t *FareTween) tick() {
	if t.phase != PhaseTweening {
		return
	}
	t.step++
	if t.step >= TweenSteps {
		t.current = t.target
		t.Stop()
		t.phase = PhaseDone
		if t.onTick != nil {
			t.onTick(t.current)
		}
		if t.onDone != nil {
			t.onDone(t.current)
		}
		return
	}
	t.current += t.target / TweenSteps
	if t.onTick != nil {
		t.onTick(t.current)
	}
}

// Stop cancels the timer and freezes the current value. A running tween
// ends in PhaseStopped.
func (t *FareTween) Stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.phase == PhaseTweening {
		t.phase = PhaseStopped
	}
}

// Reset stops the tween and returns it to Idle at zero.
func (t *FareTween) Reset() {
	t.Stop()
	t.target = 0
	t.current = 0
	t.step = 0
	t.phase = PhaseIdle
}

func (t *FareTween) Value() float64  { return t.current }
func (t *FareTween) Target() float64 { return t.target }
func (t *FareTween) Step() int       { return t.step }
func (t *FareTween) Phase() Phase    { return t.phase }
