package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/npratt/loanpoll/internal/sched"
)

// FakeScheduler is a sched.Scheduler driven by virtual time.
// Callbacks run synchronously on the goroutine calling Advance, in due order.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	due     time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewFakeScheduler creates a FakeScheduler at virtual time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc implements sched.Scheduler.
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) sched.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &fakeTimer{s: s, due: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Stop implements sched.Timer.
func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDueLocked(target)
		if next == nil {
			s.now = target
			s.compactLocked()
			s.mu.Unlock()
			return
		}
		s.now = next.due
		next.fired = true
		s.mu.Unlock()

		next.f()
	}
}

// Tick advances virtual time by one second n times.
func (s *FakeScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		s.Advance(time.Second)
	}
}

// Pending returns the number of timers that have neither fired nor stopped.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// NextDue returns the delay until the earliest pending timer, and false if
// none is pending.
func (s *FakeScheduler) NextDue() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.nextDueLocked(time.Duration(1<<62 - 1))
	if next == nil {
		return 0, false
	}
	return next.due - s.now, true
}

// Now returns the current virtual time.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) nextDueLocked(limit time.Duration) *fakeTimer {
	var pending []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && t.due <= limit {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].due != pending[j].due {
			return pending[i].due < pending[j].due
		}
		return pending[i].seq < pending[j].seq
	})
	return pending[0]
}

func (s *FakeScheduler) compactLocked() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
}
