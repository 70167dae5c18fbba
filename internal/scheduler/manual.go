// internal/scheduler/manual.go
package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Time is frozen until Advance
// moves it forward, firing due tasks in order on the calling goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	seq       int
	due       time.Time
	period    time.Duration // 0 for one-shot
	fn        func()
	cancelled bool
	m         *Manual
}

func (t *manualTask) Cancel() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	t.cancelled = true
}

// NewManual returns a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) Task {
	return m.schedule(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Task {
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, period time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{seq: m.seq, due: m.now.Add(d), period: period, fn: fn, m: m}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every task that comes due
// along the way in due-time order. Callbacks run without the internal lock
// held, so they may schedule further tasks; a task scheduled inside a
// callback fires in this same Advance if it falls within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}
		if next.due.After(m.now) {
			m.now = next.due
		}
		if next.period > 0 {
			next.due = m.now.Add(next.period)
		} else {
			m.removeLocked(next)
		}
		fn := next.fn
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// PendingTasks reports how many tasks are still scheduled (periodic included).
func (m *Manual) PendingTasks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// nextDueLocked returns the earliest non-cancelled task due at or before
// target, stably ordered by (due, seq). Cancelled tasks are dropped here.
func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.tasks = live
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})
	if len(m.tasks) == 0 || m.tasks[0].due.After(target) {
		return nil
	}
	return m.tasks[0]
}

func (m *Manual) removeLocked(target *manualTask) {
	for i, t := range m.tasks {
		if t == target {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}
