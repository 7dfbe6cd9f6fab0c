package eventloop

import (
	"sort"
	"time"
)

// Manual is a Runtime driven by hand: time only moves on Advance and
// off-owner tasks only run on RunTask or Flush. Everything executes on the
// caller's goroutine.
type Manual struct {
	now    time.Duration
	seq    int
	timers []manualTimer
	tasks  []func() func()
}

type manualTimer struct {
	at  time.Duration
	seq int
	f   func()
}

// NewManual returns a Manual runtime at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) AfterFunc(d time.Duration, f func()) {
	m.seq++
	m.timers = append(m.timers, manualTimer{at: m.now + d, seq: m.seq, f: f})
}

func (m *Manual) Go(task func() func()) {
	m.tasks = append(m.tasks, task)
}

// Now is the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves virtual time forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		sort.SliceStable(m.timers, func(i, j int) bool {
			if m.timers[i].at != m.timers[j].at {
				return m.timers[i].at < m.timers[j].at
			}
			return m.timers[i].seq < m.timers[j].seq
		})
		if len(m.timers) == 0 || m.timers[0].at > target {
			break
		}
		next := m.timers[0]
		m.timers = m.timers[1:]
		m.now = next.at
		next.f()
	}
	m.now = target
}

// Timers is the number of timers not yet fired.
func (m *Manual) Timers() int {
	return len(m.timers)
}

// Pending is the number of queued off-owner tasks.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// RunTask runs the i-th queued task and its continuation.
func (m *Manual) RunTask(i int) {
	task := m.tasks[i]
	m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	if apply := task(); apply != nil {
		apply()
	}
}

// Flush runs queued tasks in order until none are left.
func (m *Manual) Flush() {
	for len(m.tasks) > 0 {
		m.RunTask(0)
	}
}
