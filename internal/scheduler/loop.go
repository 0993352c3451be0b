// Package scheduler provides the single-threaded tick source and cancellable
// host timers the runtimes are driven by.
//
// A Loop is owned by one goroutine. Tick callbacks, timers and posted work
// all run on that goroutine inside Advance, so the runtimes never need locks.
// Other goroutines hand work to the loop with Post.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CancelFunc cancels a tick registration or a pending timer. Calling it more
// than once is a no-op.
type CancelFunc func()

// TickFunc receives the time elapsed since the previous tick.
type TickFunc func(dt time.Duration)

// Ticks registers per-frame callbacks.
type Ticks interface {
	OnTick(fn TickFunc) CancelFunc
}

// Timers schedules one-shot callbacks.
type Timers interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// Host is everything a runtime needs from the scheduler.
type Host interface {
	Ticks
	Timers
}

type tickEntry struct {
	fn      TickFunc
	removed bool
}

type timer struct {
	due       time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

// Loop is a cooperative scheduler driven by Advance.
type Loop struct {
	mu     sync.Mutex
	posted []func()

	now     time.Duration
	seq     uint64
	frames  uint64
	tickers []*tickEntry
	timers  []*timer
}

// New creates an idle loop at time zero.
func New() *Loop {
	return &Loop{}
}

// Now returns the loop's virtual clock.
func (l *Loop) Now() time.Duration {
	return l.now
}

// Frames returns the number of ticks run so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// OnTick registers fn to run on every tick, after callbacks registered
// earlier.
func (l *Loop) OnTick(fn TickFunc) CancelFunc {
	e := &tickEntry{fn: fn}
	l.tickers = append(l.tickers, e)
	return func() {
		if e.removed {
			return
		}
		e.removed = true
		l.compactTickers()
	}
}

// Schedule runs fn once the loop clock has advanced by d. Timers fire after
// the tick callbacks of the tick in which they come due, ordered by due time
// and then by creation.
func (l *Loop) Schedule(d time.Duration, fn func()) CancelFunc {
	l.seq++
	t := &timer{due: l.now + d, seq: l.seq, fn: fn}
	l.timers = append(l.timers, t)
	return func() {
		if t.cancelled {
			return
		}
		t.cancelled = true
		l.removeTimer(t)
	}
}

// Pending returns the number of timers that have not fired or been cancelled.
func (l *Loop) Pending() int {
	return len(l.timers)
}

// Post queues fn to run at the start of the next Advance. It is the only
// Loop method safe to call from other goroutines.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Advance runs one tick of length dt: posted work, then tick callbacks in
// registration order, then timers that came due.
func (l *Loop) Advance(dt time.Duration) {
	l.drainPosted()

	l.now += dt
	l.frames++

	for _, e := range append([]*tickEntry(nil), l.tickers...) {
		if !e.removed {
			e.fn(dt)
		}
	}

	l.fireTimers()
}

// Run drives Advance from a wall-clock ticker at hz until ctx is done.
// ticks > 0 stops after that many frames.
func (l *Loop) Run(ctx context.Context, hz int, ticks uint64) error {
	if hz <= 0 {
		hz = 60
	}
	d := time.Second / time.Duration(hz)
	if d <= 0 {
		return fmt.Errorf("invalid tick hz: %d", hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	last := time.Now()
	var n uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			l.Advance(now.Sub(last))
			last = now
			n++
			if ticks > 0 && n >= ticks {
				return nil
			}
		}
	}
}

func (l *Loop) drainPosted() {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}
}

func (l *Loop) fireTimers() {
	// Timers created while firing wait for the next tick.
	limit := l.seq
	for {
		next := l.nextDue(limit)
		if next == nil {
			return
		}
		next.cancelled = true
		l.removeTimer(next)
		next.fn()
	}
}

func (l *Loop) nextDue(limit uint64) *timer {
	var best *timer
	for _, t := range l.timers {
		if t.cancelled || t.seq > limit || t.due > l.now {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (l *Loop) removeTimer(t *timer) {
	for i, v := range l.timers {
		if v == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}

func (l *Loop) compactTickers() {
	kept := l.tickers[:0]
	for _, e := range l.tickers {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(l.tickers); i++ {
		l.tickers[i] = nil
	}
	l.tickers = kept
}
