// Package clock implements a virtual clock for deterministic timer testing.
//
// While active, the clock owns a set of pending timers and a virtual "current
// time" that only moves when the caller advances it. Timer callbacks fire
// synchronously during advancement, in due-time order with ties broken by
// scheduling order.
//
// Thread-safety: a Clock is NOT safe for concurrent use. The harness drives
// it from a single goroutine; timer callbacks may reentrantly schedule or
// cancel timers.
package clock

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Timer is one pending scheduled callback.
type Timer struct {
	// ID is unique and monotonically increasing within a clock activation.
	ID uint64
	// Callback runs when virtual time reaches Due.
	Callback func()
	// Due is the virtual time at which the timer fires.
	Due time.Duration
	// Interval marks a repeating timer.
	Interval bool
	// Period is the repeat interval for interval timers.
	Period time.Duration
}

// Clock is a virtual time source with fake timer scheduling.
// The zero value is inactive; use New.
type Clock struct {
	logger  *zap.Logger
	wallNow func() time.Time

	active  bool
	current time.Duration
	anchor  time.Time
	pending []*Timer
	nextID  uint64
}

// Option configures a Clock.
type Option func(*Clock)

// WithLogger sets the logger used for timer callback errors.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Clock) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWallClock overrides the wall-time source used as the activation anchor.
func WithWallClock(now func() time.Time) Option {
	return func(c *Clock) {
		if now != nil {
			c.wallNow = now
		}
	}
}

// New creates an inactive virtual clock.
func New(opts ...Option) *Clock {
	c := &Clock{
		logger:  zap.NewNop(),
		wallNow: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate enables fake timers. Virtual time resets to zero, the wall-time
// anchor is captured, and any previously pending timers are discarded.
// Activating an already active clock resets it.
func (c *Clock) Activate() {
	c.active = true
	c.current = 0
	c.anchor = c.wallNow()
	c.pending = nil
	c.nextID = 0
}

// Deactivate disables fake timers and discards all pending state.
func (c *Clock) Deactivate() {
	c.active = false
	c.pending = nil
}

// Active reports whether fake timers are enabled.
func (c *Clock) Active() bool {
	return c.active
}

// minPeriod is the smallest repeat period an interval timer may have.
// Periods at or below zero would re-arm at the same due instant and keep
// AdvanceByTime from ever reaching its target.
const minPeriod = time.Millisecond

// Schedule registers a callback to fire after delay of virtual time.
// Negative delays fire on the next advance; for interval timers the delay
// is also the repeat period, clamped to a minimum of one millisecond.
// It returns the timer id for cancellation.
func (c *Clock) Schedule(callback func(), delay time.Duration, interval bool) uint64 {
	period := delay
	if interval && period < minPeriod {
		period = minPeriod
	}
	if delay < 0 {
		delay = 0
	}
	c.nextID++
	c.pending = append(c.pending, &Timer{
		ID:       c.nextID,
		Callback: callback,
		Due:      c.current + delay,
		Interval: interval,
		Period:   period,
	})
	return c.nextID
}

// Cancel removes the pending timer with the given id, if present.
func (c *Clock) Cancel(id uint64) {
	for i, tm := range c.pending {
		if tm.ID == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// PendingTimerCount returns the number of pending timers.
func (c *Clock) PendingTimerCount() int {
	return len(c.pending)
}

// ClearAllTimers discards every pending timer without firing it.
func (c *Clock) ClearAllTimers() {
	c.pending = nil
}

// AdvanceByTime moves virtual time forward by d, firing every timer that
// falls due along the way. Interval timers are re-armed after each firing;
// one-shot timers are removed. Timers scheduled by a firing callback are
// themselves fired if they fall due before the target time. The current
// virtual time always ends at exactly current+d, whether or not any timer
// fired.
func (c *Clock) AdvanceByTime(d time.Duration) {
	target := c.current + d
	for {
		tm := c.nextDue(target)
		if tm == nil {
			break
		}
		// The callback observes the timer's due instant as "now".
		c.current = tm.Due
		if tm.Interval {
			tm.Due += tm.Period
		} else {
			c.Cancel(tm.ID)
		}
		c.fire(tm)
	}
	c.current = target
}

// AdvanceToNextTimer advances virtual time just far enough to fire the
// soonest pending timer. It is a no-op when no timer is pending.
func (c *Clock) AdvanceToNextTimer() {
	var soonest *Timer
	for _, tm := range c.pending {
		if soonest == nil || tm.Due < soonest.Due || (tm.Due == soonest.Due && tm.ID < soonest.ID) {
			soonest = tm
		}
	}
	if soonest == nil {
		return
	}
	delta := soonest.Due - c.current
	if delta < 0 {
		delta = 0
	}
	c.AdvanceByTime(delta)
}

// RunOnlyPendingTimers fires exactly the timers pending at the time of the
// call, in due-time order. Timers scheduled as a side effect of this pass are
// left pending, so a self-rescheduling timer cannot loop forever. Virtual
// time advances to the latest due time fired.
func (c *Clock) RunOnlyPendingTimers() {
	snapshot := make([]*Timer, len(c.pending))
	copy(snapshot, c.pending)
	sortTimers(snapshot)

	for _, tm := range snapshot {
		if !c.isPending(tm.ID) {
			continue // cancelled by an earlier callback in this pass
		}
		if tm.Due > c.current {
			c.current = tm.Due
		}
		if tm.Interval {
			tm.Due += tm.Period
		} else {
			c.Cancel(tm.ID)
		}
		c.fire(tm)
	}
}

// Now returns the current time. While active, it is the activation anchor
// plus the current virtual time; inactive clocks fall through to wall time.
func (c *Clock) Now() time.Time {
	if c.active {
		return c.anchor.Add(c.current)
	}
	return c.wallNow()
}

// At returns t unchanged. It exists so hosts have an explicit-construction
// path that bypasses virtual time entirely.
func (c *Clock) At(t time.Time) time.Time {
	return t
}

// SetSystemTime re-anchors the clock so Now reports t at the current
// virtual time.
func (c *Clock) SetSystemTime(t time.Time) {
	c.anchor = t.Add(-c.current)
}

// nextDue returns the pending timer with the smallest due time not past
// target, ties broken by scheduling order. Nil when none qualifies.
func (c *Clock) nextDue(target time.Duration) *Timer {
	var best *Timer
	for _, tm := range c.pending {
		if tm.Due > target {
			continue
		}
		if best == nil || tm.Due < best.Due || (tm.Due == best.Due && tm.ID < best.ID) {
			best = tm
		}
	}
	return best
}

func (c *Clock) isPending(id uint64) bool {
	for _, tm := range c.pending {
		if tm.ID == id {
			return true
		}
	}
	return false
}

// fire runs a timer callback. Callback panics are logged and swallowed so a
// broken timer never breaks the advancing caller.
func (c *Clock) fire(tm *Timer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("timer callback panicked",
				zap.Uint64("timerID", tm.ID),
				zap.Any("panic", r),
			)
		}
	}()
	tm.Callback()
}

func sortTimers(timers []*Timer) {
	sort.Slice(timers, func(i, j int) bool {
		if timers[i].Due != timers[j].Due {
			return timers[i].Due < timers[j].Due
		}
		return timers[i].ID < timers[j].ID
	})
}
