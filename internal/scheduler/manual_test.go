// internal/scheduler/manual_test.go
package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualAfterFiresInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var fired []string
	m.After(3*time.Second, func() { fired = append(fired, "c") })
	m.After(1*time.Second, func() { fired = append(fired, "a") })
	m.After(2*time.Second, func() { fired = append(fired, "b") })

	m.Advance(90 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, m.PendingTasks())
}

func TestManualAdvancePartialWindow(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	fired := 0
	m.After(5*time.Second, func() { fired++ })

	m.Advance(4 * time.Second)
	assert.Equal(t, 0, fired)

	m.Advance(1 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestManualCancelPreventsFiring(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	fired := false
	task := m.After(time.Second, func() { fired = true })
	task.Cancel()

	m.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManualEveryRepeats(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	count := 0
	task := m.Every(10*time.Second, func() { count++ })

	m.Advance(35 * time.Second)
	assert.Equal(t, 3, count)

	task.Cancel()
	m.Advance(time.Minute)
	assert.Equal(t, 3, count)
}

func TestManualCallbackMaySchedule(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	// A chain of callbacks, each scheduling the next, must all fire inside a
	// single Advance when they fall within the window. This is the shape of
	// the bot auto-ban recursion.
	chain := 0
	var schedule func()
	schedule = func() {
		chain++
		if chain < 5 {
			m.After(2*time.Second, schedule)
		}
	}
	m.After(2*time.Second, schedule)

	m.Advance(10 * time.Second)
	assert.Equal(t, 5, chain)
}

func TestManualNowTracksAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManual(start)
	require.Equal(t, start, m.Now())

	m.Advance(42 * time.Second)
	assert.Equal(t, start.Add(42*time.Second), m.Now())
}
