package game

import (
	"log"
	"sync"
	"time"
)

// TimerRegistry tracks the two deadlines of every playing match: a
// turn deadline re-armed on each accepted move and an absolute match
// deadline armed once. Timers live only in this process; a restart
// loses them and ReconcileTimers re-derives them from row timestamps.
type TimerRegistry struct {
	mu      sync.Mutex
	entries map[int]*timerEntry

	turnTimeout  time.Duration
	matchTimeout time.Duration
	onTurn       func(matchID int)
	onMatch      func(matchID int)
}

type timerEntry struct {
	turn  *time.Timer
	match *time.Timer
}

// NewTimerRegistry creates a registry firing the given callbacks on
// expiry. Callbacks run on their own goroutine and must open their own
// transaction.
func NewTimerRegistry(turnTimeout, matchTimeout time.Duration, onTurn, onMatch func(matchID int)) *TimerRegistry {
	return &TimerRegistry{
		entries:      make(map[int]*timerEntry),
		turnTimeout:  turnTimeout,
		matchTimeout: matchTimeout,
		onTurn:       onTurn,
		onMatch:      onMatch,
	}
}

// Start arms both deadlines for a match that just became playing.
func (r *TimerRegistry) Start(matchID int) {
	r.StartWithRemaining(matchID, r.turnTimeout, r.matchTimeout)
}

// StartWithRemaining arms deadlines with explicit remaining durations
// (used by restart reconciliation). Replaces any existing entry.
func (r *TimerRegistry) StartWithRemaining(matchID int, turnIn, matchIn time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[matchID]; ok {
		old.turn.Stop()
		old.match.Stop()
	}
	r.entries[matchID] = &timerEntry{
		turn:  time.AfterFunc(turnIn, func() { r.onTurn(matchID) }),
		match: time.AfterFunc(matchIn, func() { r.onMatch(matchID) }),
	}
	log.Printf("[TIMER] Match %d armed: turn in %v, match in %v", matchID, turnIn, matchIn)
}

// ResetTurn re-arms the turn deadline after an accepted move. The
// match deadline is never reset. No-op for unregistered matches.
func (r *TimerRegistry) ResetTurn(matchID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[matchID]
	if !ok {
		return
	}
	e.turn.Stop()
	e.turn = time.AfterFunc(r.turnTimeout, func() { r.onTurn(matchID) })
}

// Cancel clears both deadlines. Idempotent: cancelling an unknown or
// already-fired match is a no-op.
func (r *TimerRegistry) Cancel(matchID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[matchID]
	if !ok {
		return
	}
	e.turn.Stop()
	e.match.Stop()
	delete(r.entries, matchID)
}

// Active reports whether a match still has registered deadlines.
func (r *TimerRegistry) Active(matchID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[matchID]
	return ok
}

// Count returns the number of matches with registered deadlines.
func (r *TimerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
