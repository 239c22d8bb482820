package reveal

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const loopQueueSize = 64

// EventLoop is the production Loop: one goroutine draining a task queue,
// with timers backed by the runtime clock.
type EventLoop struct {
	log   *zap.Logger
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewEventLoop(log *zap.Logger) *EventLoop {
	if log == nil {
		log = zap.NewNop()
	}
	l := &EventLoop{
		log:   log,
		tasks: make(chan func(), loopQueueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *EventLoop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *EventLoop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("event loop task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do must not be called from the loop goroutine.
func (l *EventLoop) Do(fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrLoopClosed
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Close stops the loop and waits for the running task to return. Queued
// tasks and pending timers are dropped. Must not be called from the loop.
func (l *EventLoop) Close() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

type loopTimer struct {
	stopped atomic.Bool
	halt    chan struct{}
	timer   *time.Timer
}

func (t *loopTimer) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.halt != nil {
		close(t.halt)
	}
}

func (l *EventLoop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Load() {
				return
			}
			lt.stopped.Store(true)
			fn()
		})
	})
	return lt
}

func (l *EventLoop) Every(d time.Duration, fn func()) Timer {
	lt := &loopTimer{halt: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-lt.halt:
				return
			case <-l.quit:
				return
			case <-ticker.C:
				l.Post(func() {
					if !lt.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()
	return lt
}
