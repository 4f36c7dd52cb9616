package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClockFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	var fired []string
	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "c") })
	c.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, "a")
		c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "b") })
	})
	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "d") })

	c.Advance(250 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(250*time.Millisecond), c.Now())

	c.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c", "d"}, fired)
	assert.Zero(t, c.Pending())
}

func TestManualTimerStop(t *testing.T) {
	c := NewManualClock(time.Time{})
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(2 * time.Second)
	assert.False(t, fired)
}
