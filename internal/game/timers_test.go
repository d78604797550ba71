package game

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTurnTimerFires(t *testing.T) {
	fired := make(chan int, 1)
	r := NewTimerRegistry(20*time.Millisecond, time.Hour, func(id int) { fired <- id }, func(int) {})

	r.Start(7)
	select {
	case id := <-fired:
		if id != 7 {
			t.Errorf("turn callback got match %d, want 7", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("turn deadline never fired")
	}
}

func TestMatchTimerFires(t *testing.T) {
	fired := make(chan int, 1)
	r := NewTimerRegistry(time.Hour, 20*time.Millisecond, func(int) {}, func(id int) { fired <- id })

	r.Start(3)
	select {
	case id := <-fired:
		if id != 3 {
			t.Errorf("match callback got match %d, want 3", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("match deadline never fired")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	var fired atomic.Int32
	r := NewTimerRegistry(30*time.Millisecond, 30*time.Millisecond,
		func(int) { fired.Add(1) }, func(int) { fired.Add(1) })

	r.Start(1)
	r.Cancel(1)
	time.Sleep(80 * time.Millisecond)

	if n := fired.Load(); n != 0 {
		t.Errorf("cancelled timers fired %d times", n)
	}
	if r.Active(1) {
		t.Errorf("match should no longer be registered")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	r := NewTimerRegistry(time.Hour, time.Hour, func(int) {}, func(int) {})

	r.Start(5)
	r.Cancel(5)
	r.Cancel(5)  // second cancel is a no-op
	r.Cancel(99) // never registered
	if r.Count() != 0 {
		t.Errorf("registry should be empty, has %d entries", r.Count())
	}
}

func TestResetTurnPostponesDeadline(t *testing.T) {
	fired := make(chan int, 1)
	r := NewTimerRegistry(60*time.Millisecond, time.Hour, func(id int) { fired <- id }, func(int) {})

	r.Start(2)
	time.Sleep(40 * time.Millisecond)
	r.ResetTurn(2)
	select {
	case <-fired:
		t.Fatalf("turn deadline fired before the reset window elapsed")
	case <-time.After(40 * time.Millisecond):
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("turn deadline never fired after reset")
	}
}

func TestResetTurnOnUnknownMatchIsNoop(t *testing.T) {
	r := NewTimerRegistry(time.Hour, time.Hour, func(int) {}, func(int) {})
	r.ResetTurn(42)
	if r.Count() != 0 {
		t.Errorf("ResetTurn must not register unknown matches")
	}
}

func TestStartReplacesExistingEntry(t *testing.T) {
	fired := make(chan int, 1)
	r := NewTimerRegistry(25*time.Millisecond, time.Hour,
		func(id int) { fired <- id }, func(int) {})

	r.StartWithRemaining(9, time.Hour, time.Hour)
	r.Start(9) // replaces the hour-long deadlines
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("replacement deadlines never fired")
	}
	if r.Count() != 1 {
		t.Errorf("expected a single registry entry, got %d", r.Count())
	}
}
