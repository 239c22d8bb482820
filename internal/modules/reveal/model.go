// README: Fare count-up and typewriter reveal, driven by timers on a single-threaded loop.
package reveal

import (
	"errors"
	"time"
)

const (
	TweenDuration  = 1500 * time.Millisecond
	TweenSteps     = 25
	TweenInterval  = TweenDuration / TweenSteps
	StreamInterval = 30 * time.Millisecond
)

var ErrLoopClosed = errors.New("event loop closed")

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseTweening  Phase = "tweening"
	PhaseStreaming Phase = "streaming"
	PhaseDone      Phase = "done"
	// PhaseStopped marks an animation cancelled before it finished.
	PhaseStopped Phase = "stopped"
)

// Timer is a handle on a scheduled callback. Stop is idempotent and, once it
// returns on the loop, the callback never runs again.
type Timer interface {
	Stop()
}

// Scheduler arms callbacks that later run on the owning loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop serialises every state change of one session onto a single goroutine.
type Loop interface {
	Scheduler
	// Do runs fn on the loop and waits for it to finish.
	Do(fn func()) error
	// Post queues fn without waiting. It reports false once the loop is closed.
	Post(fn func()) bool
	Close()
}
