// Package host defines the contracts the embedding host application
// supplies: a cooperative periodic-callback scheduler.
//
// The host runs a single-threaded cooperative message loop. The only
// primitive it exposes is "invoke this callback after at least delay,
// without blocking the caller". Callbacks must return quickly; blocking in
// one freezes the host UI.
package host

import (
	"sync"
	"time"
)

// Scheduler schedules a callback to run after at least delay. Fire and
// forget: there is no cancellation handle and no ordering guarantee across
// unrelated callbacks.
type Scheduler interface {
	Schedule(fn func(), delay time.Duration)
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func(), delay time.Duration)

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(fn func(), delay time.Duration) {
	f(fn, delay)
}

// TimerScheduler is a timer-backed Scheduler for hosts without their own
// message loop (the CLI, tests). Unlike a real host scheduler it runs
// callbacks on timer goroutines, so callbacks must be self-synchronized.
type TimerScheduler struct {
	mu      sync.Mutex
	timers  []*time.Timer
	stopped bool
}

// NewTimerScheduler creates a timer-backed scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(fn func(), delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.timers = append(s.timers, time.AfterFunc(delay, fn))
}

// Stop cancels all pending callbacks. Callbacks already running are not
// interrupted.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
