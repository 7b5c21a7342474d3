// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package throttle

import (
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		var next *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(end) {
				next = t
				break
			}
		}
		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recorder struct {
	mu   sync.Mutex
	vals []int
	at   []time.Time
	clk  *fakeClock
}

func (r *recorder) emit(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vals = append(r.vals, v)
	r.at = append(r.at, r.clk.Now())
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.vals...)
}

func TestValue_FirstValueImmediate(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, 500*time.Millisecond, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	assert.Equal(t, []int{1}, rec.values())
	assert.Equal(t, 1, v.Get())
	assert.Equal(t, Idle, v.State())
}

func TestValue_FirstValueDelayedByDefault(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, 500*time.Millisecond, rec.emit, WithClock(clk))

	v.Set(1)
	assert.Empty(t, rec.values())
	assert.Equal(t, Pending, v.State())
	assert.Equal(t, 0, v.Get(), "initial value until the timer fires")

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, []int{1}, rec.values())
	assert.Equal(t, Idle, v.State())
}

func TestValue_CoalescesBurstToLastValue(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	for i := 2; i <= 5; i++ {
		clk.Advance(100 * time.Millisecond)
		v.Set(i)
	}
	assert.Equal(t, []int{1}, rec.values())
	assert.Equal(t, 1, clk.active(), "only one timer armed at a time")

	clk.Advance(time.Second)
	assert.Equal(t, []int{1, 5}, rec.values())
	assert.Equal(t, 5, v.Get())
}

func TestValue_AfterQuietPeriodEmitsImmediately(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	clk.Advance(time.Second)
	v.Set(2)
	assert.Equal(t, []int{1, 2}, rec.values())

	clk.Advance(1500 * time.Millisecond)
	v.Set(3)
	assert.Equal(t, []int{1, 2, 3}, rec.values())
}

func TestValue_EmissionBoundAndLastValueDelivered(t *testing.T) {
	intervals := []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, time.Second}
	gaps := []time.Duration{10 * time.Millisecond, 70 * time.Millisecond, 99 * time.Millisecond}

	for _, interval := range intervals {
		for _, gap := range gaps {
			clk := newFakeClock()
			rec := &recorder{clk: clk}
			v := New(0, interval, rec.emit, WithClock(clk), WithImmediateFirst())

			start := clk.Now()
			last := 0
			for i := 1; i <= 50; i++ {
				v.Set(i)
				last = i
				clk.Advance(gap)
			}
			clk.Advance(2 * interval)
			elapsed := clk.Now().Sub(start)

			vals := rec.values()
			require.NotEmpty(t, vals)
			bound := int(math.Ceil(float64(elapsed)/float64(interval))) + 1
			assert.LessOrEqual(t, len(vals), bound, "interval %s gap %s", interval, gap)
			assert.Equal(t, last, vals[len(vals)-1], "interval %s gap %s", interval, gap)

			// Consecutive emissions are never closer than one interval.
			for i := 1; i < len(rec.at); i++ {
				assert.GreaterOrEqual(t, rec.at[i].Sub(rec.at[i-1]), interval)
			}
		}
	}
}

func TestValue_StopCancelsPending(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	v.Set(2)
	require.Equal(t, Pending, v.State())

	assert.NotPanics(t, func() {
		v.Stop()
		v.Stop()
	})
	assert.Equal(t, Stopped, v.State())
	assert.Zero(t, clk.active())

	clk.Advance(5 * time.Second)
	v.Set(3)
	clk.Advance(5 * time.Second)
	assert.Equal(t, []int{1}, rec.values(), "nothing after stop")
}

func TestValue_StaleTimerIgnored(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	v.Set(2)
	// Grab the armed callback and run it after it has been superseded.
	clk.mu.Lock()
	stale := clk.timers[len(clk.timers)-1].f
	clk.mu.Unlock()

	v.Set(3)
	stale()
	assert.Equal(t, []int{1}, rec.values())

	clk.Advance(time.Second)
	assert.Equal(t, []int{1, 3}, rec.values())
}

func TestValue_SetIntervalKeepsPendingValue(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	v.Set(2)

	// Shorter interval, not yet elapsed: 2 is rescheduled, not dropped.
	v.SetInterval(200 * time.Millisecond)
	assert.Equal(t, Pending, v.State())
	assert.Equal(t, 200*time.Millisecond, v.Interval())
	assert.Equal(t, 1, clk.active())

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{1, 2}, rec.values())
	assert.Equal(t, Idle, v.State())

	// Shorter interval that has already elapsed: 3 goes out immediately.
	v.Set(3)
	assert.Equal(t, Pending, v.State())
	clk.Advance(100 * time.Millisecond)
	v.SetInterval(50 * time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, rec.values())
	assert.Equal(t, Idle, v.State())
	assert.Zero(t, clk.active())
	assert.Equal(t, 3, v.Get())

	// Nothing pending: changing the interval emits nothing.
	clk.Advance(time.Hour)
	v.SetInterval(0)
	assert.Equal(t, DefaultInterval, v.Interval())
	assert.Equal(t, []int{1, 2, 3}, rec.values())
}

func TestValue_SetIntervalAfterStop(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{clk: clk}
	v := New(0, time.Second, rec.emit, WithClock(clk), WithImmediateFirst())

	v.Set(1)
	v.Set(2)
	v.Stop()
	v.SetInterval(time.Millisecond)
	clk.Advance(time.Hour)

	assert.Equal(t, []int{1}, rec.values())
	assert.Equal(t, Stopped, v.State())
	assert.Equal(t, time.Second, v.Interval())
}

func TestNew_DefaultInterval(t *testing.T) {
	v := New("a", 0, nil)
	assert.Equal(t, DefaultInterval, v.Interval())
	assert.Equal(t, "a", v.Get())
}

func TestValue_RealClock(t *testing.T) {
	got := make(chan string, 2)
	v := New("", 20*time.Millisecond, func(s string) { got <- s }, WithImmediateFirst())
	defer v.Stop()

	v.Set("first")
	v.Set("second")
	assert.Equal(t, "first", <-got)

	select {
	case s := <-got:
		assert.Equal(t, "second", s)
	case <-time.After(time.Second):
		t.Fatal("pending value never emitted")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "stopped", Stopped.String())
}
