package gesture

import (
	"sort"
	"time"
)

// Scheduler runs a callback once after a delay. Callbacks must be delivered
// on the same goroutine that feeds touches to the controller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// ManualScheduler is a Scheduler whose clock only moves on Advance.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	due time.Duration
	seq int
	fn  func()
}

func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() {
	m.seq++
	timer := &manualTimer{due: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, timer)
	return func() { m.remove(timer) }
}

func (m *ManualScheduler) remove(timer *manualTimer) {
	for i, t := range m.timers {
		if t == timer {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward and runs every callback that became due,
// in due order. It returns the number of callbacks run.
func (m *ManualScheduler) Advance(d time.Duration) int {
	target := m.now + d
	fired := 0
	for {
		sort.SliceStable(m.timers, func(i, j int) bool {
			if m.timers[i].due == m.timers[j].due {
				return m.timers[i].seq < m.timers[j].seq
			}
			return m.timers[i].due < m.timers[j].due
		})
		if len(m.timers) == 0 || m.timers[0].due > target {
			break
		}

		next := m.timers[0]
		m.timers = m.timers[1:]
		m.now = next.due
		next.fn()
		fired++
	}
	m.now = target
	return fired
}

// Pending counts callbacks not yet run or cancelled.
func (m *ManualScheduler) Pending() int {
	return len(m.timers)
}

func (m *ManualScheduler) Now() time.Duration {
	return m.now
}
