package eventloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_AdvanceFiresDueTimersInOrder(t *testing.T) {
	m := NewManual()
	var order []string

	m.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(100*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(99 * time.Millisecond)
	assert.Empty(t, order)

	m.Advance(201 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.Timers())
	assert.Equal(t, 300*time.Millisecond, m.Now())
}

func TestManual_TimerScheduledByTimer(t *testing.T) {
	m := NewManual()
	fired := false

	m.AfterFunc(100*time.Millisecond, func() {
		m.AfterFunc(100*time.Millisecond, func() { fired = true })
	})

	m.Advance(150 * time.Millisecond)
	assert.False(t, fired)
	m.Advance(50 * time.Millisecond)
	assert.True(t, fired)
}

func TestManual_TasksRunOnDemand(t *testing.T) {
	m := NewManual()
	var order []int

	for i := 1; i <= 3; i++ {
		m.Go(func() func() {
			return func() { order = append(order, i) }
		})
	}
	assert.Equal(t, 3, m.Pending())

	m.RunTask(2)
	m.Flush()

	assert.Equal(t, []int{3, 1, 2}, order)
	assert.Equal(t, 0, m.Pending())
}
