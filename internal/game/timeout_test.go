package game

import (
	"database/sql"
	"testing"
	"time"

	"github.com/playgrid/backend/internal/config"
	"github.com/playgrid/backend/internal/models"
)

func testManager() *MatchManager {
	cfg := &config.Config{
		BoardRows: 6, BoardCols: 6, WinLength: 4,
		TurnTimeoutSeconds:  60,
		MatchTimeoutMinutes: 30,
	}
	return NewMatchManager(nil, nil, cfg)
}

func playingMatch(started, lastMove time.Time) models.Match {
	mt := models.Match{
		Status:    StatusPlaying,
		CreatedAt: started.Add(-time.Minute),
		StartedAt: sql.NullTime{Time: started, Valid: true},
	}
	if !lastMove.IsZero() {
		mt.LastMoveAt = sql.NullTime{Time: lastMove, Valid: true}
	}
	return mt
}

func TestFreshMoveLeavesTurnTimeRemaining(t *testing.T) {
	m := testManager()
	now := time.Now()

	// a move landed 10s ago: a timer armed 60s ago is stale, the row
	// says 50s of turn time remain
	mt := playingMatch(now.Add(-5*time.Minute), now.Add(-10*time.Second))
	turnIn, matchIn := m.remainingDeadlines(&mt, now)

	if turnIn != 50*time.Second {
		t.Errorf("turn remaining = %v, want 50s", turnIn)
	}
	if matchIn != 25*time.Minute {
		t.Errorf("match remaining = %v, want 25m", matchIn)
	}
}

func TestElapsedTurnDeadlineIsNegative(t *testing.T) {
	m := testManager()
	now := time.Now()

	mt := playingMatch(now.Add(-5*time.Minute), now.Add(-2*time.Minute))
	turnIn, matchIn := m.remainingDeadlines(&mt, now)

	if turnIn > 0 {
		t.Errorf("turn remaining = %v, want <= 0 for a 2m-old move", turnIn)
	}
	if matchIn <= 0 {
		t.Errorf("match remaining = %v, the absolute deadline has not passed", matchIn)
	}
}

func TestElapsedMatchDeadlineIsNegative(t *testing.T) {
	m := testManager()
	now := time.Now()

	mt := playingMatch(now.Add(-31*time.Minute), now.Add(-10*time.Second))
	turnIn, matchIn := m.remainingDeadlines(&mt, now)

	if matchIn > 0 {
		t.Errorf("match remaining = %v, want <= 0 after 31m", matchIn)
	}
	if turnIn <= 0 {
		t.Errorf("turn remaining = %v, the last move was fresh", turnIn)
	}
}

func TestTurnClockFallsBackToStartedAt(t *testing.T) {
	m := testManager()
	now := time.Now()

	// no move yet: the first turn's clock runs from started_at
	mt := playingMatch(now.Add(-30*time.Second), time.Time{})
	turnIn, _ := m.remainingDeadlines(&mt, now)

	if turnIn != 30*time.Second {
		t.Errorf("turn remaining = %v, want 30s from started_at", turnIn)
	}
}

func TestAtLeastClampsExpiredDeadlines(t *testing.T) {
	if got := atLeast(-5*time.Second, expiryGrace); got != expiryGrace {
		t.Errorf("expired deadline clamped to %v, want %v", got, expiryGrace)
	}
	if got := atLeast(10*time.Second, expiryGrace); got != 10*time.Second {
		t.Errorf("future deadline altered to %v", got)
	}
}
