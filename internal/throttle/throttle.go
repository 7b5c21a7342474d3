// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package throttle

import (
	"sync"
	"time"
)

// DefaultInterval is used when no positive interval is given.
const DefaultInterval = time.Second

// State is where a Value is in its emit cycle.
type State int

const (
	// Idle means nothing is waiting to be emitted.
	Idle State = iota
	// Pending means a timer is armed to emit a newer value.
	Pending
	// Stopped means the Value has been torn down and will never emit again.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Clock is the time source. The real one is used unless WithClock says
// otherwise.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer a Value needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Value delays propagation of a changing value so that emit is called at
// most once per interval. The most recent value handed to Set is always
// emitted eventually unless Stop is called first.
type Value[T any] struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	emit     func(T)

	current  T
	pending  T
	lastEmit time.Time
	state    State
	timer    Timer
	// gen invalidates timers that fired after being superseded.
	gen uint64
}

// Option configures a Value created by New.
type Option func(*options)

type options struct {
	clock          Clock
	immediateFirst bool
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithImmediateFirst lets the first Set emit right away. Without it the last
// emit time starts at construction, so a Set within one interval of New is
// delayed like any other.
func WithImmediateFirst() Option {
	return func(o *options) {
		o.immediateFirst = true
	}
}

// New returns a Value holding initial. emit is called with each value that
// makes it through, outside the Value's lock, and may be nil.
func New[T any](initial T, interval time.Duration, emit func(T), opts ...Option) *Value[T] {
	o := options{clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	v := &Value[T]{
		clock:    o.clock,
		interval: interval,
		emit:     emit,
		current:  initial,
	}
	if !o.immediateFirst {
		v.lastEmit = o.clock.Now()
	}
	return v
}

// Set offers a new value. If a full interval has passed since the last emit
// it is emitted now, otherwise it replaces whatever was pending and is
// emitted one interval from now.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	if v.state == Stopped {
		v.mu.Unlock()
		return
	}
	now := v.offerLocked(val)
	emit := v.emit
	v.mu.Unlock()

	if now && emit != nil {
		emit(val)
	}
}

// offerLocked applies the throttle rule to val under the lock. It reports
// whether val must be emitted by the caller once the lock is released.
func (v *Value[T]) offerLocked(val T) bool {
	v.cancelLocked()

	now := v.clock.Now()
	if !now.Before(v.lastEmit.Add(v.interval)) {
		v.current = val
		v.lastEmit = now
		v.state = Idle
		return true
	}

	gen := v.gen
	v.pending = val
	v.state = Pending
	v.timer = v.clock.AfterFunc(v.interval, func() { v.fire(gen, val) })
	return false
}

func (v *Value[T]) fire(gen uint64, val T) {
	v.mu.Lock()
	if v.state != Pending || v.gen != gen {
		v.mu.Unlock()
		return
	}
	v.current = val
	v.lastEmit = v.clock.Now()
	v.state = Idle
	v.timer = nil
	emit := v.emit
	v.mu.Unlock()

	if emit != nil {
		emit(val)
	}
}

// Stop cancels any pending emission and makes every later Set a no-op. It is
// safe to call more than once.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancelLocked()
	v.state = Stopped
}

// SetInterval changes the interval. A pending value is rescheduled against
// the new interval, or emitted now if the new interval has already elapsed.
func (v *Value[T]) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	v.mu.Lock()
	if v.state == Stopped {
		v.mu.Unlock()
		return
	}
	v.interval = d
	if v.state != Pending {
		v.mu.Unlock()
		return
	}
	val := v.pending
	now := v.offerLocked(val)
	emit := v.emit
	v.mu.Unlock()

	if now && emit != nil {
		emit(val)
	}
}

// Get returns the last emitted value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// State returns the current state.
func (v *Value[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Interval returns the current interval.
func (v *Value[T]) Interval() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.interval
}

func (v *Value[T]) cancelLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	// Bumping gen covers a timer that already fired and is waiting on the lock.
	v.gen++
}
