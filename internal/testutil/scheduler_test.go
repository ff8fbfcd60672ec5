package testutil

import (
	"testing"
	"time"
)

func TestFakeScheduler_FiresInOrder(t *testing.T) {
	s := NewFakeScheduler()
	var fired []string

	s.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	s.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	s.AfterFunc(time.Second, func() { fired = append(fired, "b") })

	s.Advance(2 * time.Second)
	if len(fired) != 2 || fired[0] != "a" || fired[1] != "b" {
		t.Fatalf("fired = %v, want [a b]", fired)
	}
	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}

	s.Advance(time.Second)
	if len(fired) != 3 {
		t.Errorf("fired = %v", fired)
	}
	if s.Now() != 3*time.Second {
		t.Errorf("Now() = %v", s.Now())
	}
}

func TestFakeScheduler_Stop(t *testing.T) {
	s := NewFakeScheduler()
	called := false
	timer := s.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	s.Advance(time.Minute)
	if called {
		t.Error("stopped timer fired")
	}
	if _, ok := s.NextDue(); ok {
		t.Error("NextDue should report no pending timer")
	}
}

func TestFakeScheduler_ChainedTimers(t *testing.T) {
	s := NewFakeScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			s.AfterFunc(time.Second, tick)
		}
	}
	s.AfterFunc(time.Second, tick)

	s.Advance(10 * time.Second)
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
}

func TestFakeScheduler_Tick(t *testing.T) {
	s := NewFakeScheduler()
	fired := false
	s.AfterFunc(3*time.Second, func() { fired = true })

	s.Tick(2)
	if fired {
		t.Fatal("fired early")
	}
	due, ok := s.NextDue()
	if !ok || due != time.Second {
		t.Errorf("NextDue() = %v, %v", due, ok)
	}
	s.Tick(1)
	if !fired {
		t.Error("did not fire after 3 ticks")
	}
}
