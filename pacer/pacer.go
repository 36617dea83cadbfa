// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package pacer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auralspace/auralspace/lib/clock"
)

// DefaultMargin is how far before each deadline the coarse timer wakes
// the pacer. Platform timers carry systematic error of a millisecond
// or two near short intervals; waking early and closing the remaining
// gap with cooperative yields keeps the per-tick error well below
// that, at the cost of a little idle CPU near each boundary.
const DefaultMargin = 2 * time.Millisecond

// Handle controls a running pacer.
type Handle struct {
	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	done     chan struct{}
}

// Cancel stops the pacer. Safe to call at any time, from any
// goroutine, including from within the tick callback, and safe to
// call more than once. A callback already past its stop check may
// still run once after Cancel returns; wait on Done for the hard
// guarantee that no further tick is delivered.
func (h *Handle) Cancel() {
	h.stopped.Store(true)
	h.stopOnce.Do(func() { close(h.stop) })
}

// Done returns a channel closed when the tick loop has exited. After
// Done, the callback will never run again.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start begins invoking callback every interval on a dedicated
// goroutine, using DefaultMargin for the coarse wake.
func Start(clk clock.Clock, interval time.Duration, callback func()) *Handle {
	return StartWithMargin(clk, interval, DefaultMargin, callback)
}

// StartWithMargin is Start with an explicit coarse-wake margin. Tests
// pass a zero margin so a fake clock advanced exactly to a deadline
// fires the tick without any yield spinning.
//
// The pacer tracks an absolute next-due timestamp and advances it by
// exactly interval on every fire — never by measured elapsed time —
// so scheduling error cannot accumulate across ticks. A naive
// fixed-delay timer drifts because each rescheduled delay is computed
// relative to when the callback finished rather than the ideal tick
// boundary. If a callback overruns its interval, the following
// deadlines are already past and their ticks fire back-to-back until
// the schedule catches up.
func StartWithMargin(clk clock.Clock, interval, margin time.Duration, callback func()) *Handle {
	if interval <= 0 {
		panic("pacer: non-positive interval")
	}

	handle := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go run(clk, interval, margin, callback, handle)
	return handle
}

func run(clk clock.Clock, interval, margin time.Duration, callback func(), handle *Handle) {
	defer close(handle.done)

	nextDue := clk.Now().Add(interval)

	for {
		// Coarse wait until margin before the deadline. A negative
		// wait (callback overran the interval) fires immediately.
		wait := nextDue.Add(-margin).Sub(clk.Now())
		select {
		case <-handle.stop:
			return
		case <-clk.After(wait):
		}

		// Close the remaining gap precisely: yield instead of
		// sleeping, re-checking the clock each pass.
		for clk.Now().Before(nextDue) {
			select {
			case <-handle.stop:
				return
			default:
			}
			runtime.Gosched()
		}

		if handle.stopped.Load() {
			return
		}
		callback()

		nextDue = nextDue.Add(interval)
	}
}
