// internal/scheduler/scheduler.go
package scheduler

import (
	"sync"
	"time"
)

// Scheduler abstracts delayed and periodic execution so that services can run
// on wall-clock timers in production while tests step time deterministically.
type Scheduler interface {
	// Now returns the scheduler's current time. All lobby timestamps and
	// expiry comparisons go through this so a manual scheduler controls them.
	Now() time.Time
	// After runs fn once, on its own goroutine, after d has elapsed.
	After(d time.Duration, fn func()) Task
	// Every runs fn repeatedly with period d until the task is cancelled.
	Every(d time.Duration, fn func()) Task
}

// Task is a handle to a scheduled unit of work.
type Task interface {
	// Cancel stops the task. Cancelling an already-fired or already-cancelled
	// task is a no-op; scheduled functions must tolerate firing anyway if the
	// cancel raced the timer.
	Cancel()
}

// New returns the wall-clock Scheduler used in production.
func New() Scheduler { return clock{} }

type clock struct{}

func (clock) Now() time.Time { return time.Now() }

func (clock) After(d time.Duration, fn func()) Task {
	return &timerTask{t: time.AfterFunc(d, fn)}
}

func (clock) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type timerTask struct {
	t *time.Timer
}

func (t *timerTask) Cancel() { t.t.Stop() }

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.done) })
}
