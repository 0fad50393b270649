package watchdog

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerFires(t *testing.T) {
	var timer Timer
	fired := make(chan struct{})

	timer.Arm(10*time.Millisecond, func() { close(fired) })
	assert.True(t, timer.Armed())
	assert.Greater(t, timer.Remaining(), time.Duration(0))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return !timer.Armed() }, time.Second, time.Millisecond)
	assert.Equal(t, time.Duration(0), timer.Remaining())
}

func TestTimerStop(t *testing.T) {
	var timer Timer
	var count atomic.Int32

	timer.Arm(20*time.Millisecond, func() { count.Add(1) })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.False(t, timer.Armed())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
}

func TestTimerRearmReplacesCallback(t *testing.T) {
	var timer Timer
	var first, second atomic.Int32

	timer.Arm(20*time.Millisecond, func() { first.Add(1) })
	timer.Arm(30*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestStaleExpiryIgnored(t *testing.T) {
	var timer Timer
	var count atomic.Int32

	timer.Arm(time.Hour, func() { count.Add(1) })
	timer.mu.Lock()
	stale := timer.gen
	timer.mu.Unlock()

	timer.Arm(time.Hour, func() { count.Add(1) })
	assert.False(t, timer.expire(stale))
	assert.True(t, timer.Armed())
	timer.Stop()
}
