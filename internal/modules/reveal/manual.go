package reveal

import (
	"sync"
	"time"
)

// ManualLoop is a Loop on a virtual clock. The goroutine calling Advance or
// Flush plays the loop goroutine; Post is safe from any goroutine.
type ManualLoop struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
	queue  []func()
	closed bool
}

type manualTimer struct {
	loop    *ManualLoop
	due     time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func NewManualLoop() *ManualLoop {
	return &ManualLoop{}
}

func (t *manualTimer) Stop() {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	t.stopped = true
}

func (l *ManualLoop) schedule(d, period time.Duration, fn func()) Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	t := &manualTimer{loop: l, due: l.now + d, period: period, seq: l.seq, fn: fn}
	if l.closed {
		t.stopped = true
		return t
	}
	l.timers = append(l.timers, t)
	return t
}

func (l *ManualLoop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.schedule(d, 0, fn)
}

func (l *ManualLoop) Every(d time.Duration, fn func()) Timer {
	return l.schedule(d, d, fn)
}

// Do runs fn immediately on the calling goroutine.
func (l *ManualLoop) Do(fn func()) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrLoopClosed
	}
	fn()
	return nil
}

func (l *ManualLoop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	return true
}

// Flush runs queued tasks, including ones they queue, and returns how many ran.
func (l *ManualLoop) Flush() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.closed {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
		n++
	}
}

// Advance moves the virtual clock forward by d, firing due timers in order.
func (l *ManualLoop) Advance(d time.Duration) {
	l.Flush()
	l.mu.Lock()
	end := l.now + d
	l.mu.Unlock()
	for {
		l.mu.Lock()
		t := l.nextDue(end)
		if t == nil {
			l.now = end
			l.mu.Unlock()
			return
		}
		l.now = t.due
		if t.period > 0 {
			t.due += t.period
		} else {
			t.stopped = true
		}
		fn := t.fn
		l.mu.Unlock()
		fn()
		l.Flush()
	}
}

// nextDue prunes stopped timers and returns the earliest one due by end.
func (l *ManualLoop) nextDue(end time.Duration) *manualTimer {
	live := l.timers[:0]
	var next *manualTimer
	for _, t := range l.timers {
		if t.stopped {
			continue
		}
		live = append(live, t)
		if t.due > end {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	for i := len(live); i < len(l.timers); i++ {
		l.timers[i] = nil
	}
	l.timers = live
	return next
}

// Active counts timers that have not fired or been stopped.
func (l *ManualLoop) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (l *ManualLoop) Now() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

func (l *ManualLoop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for _, t := range l.timers {
		t.stopped = true
	}
	l.timers = nil
	l.queue = nil
}
