package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/models"
)

// Timer expiry handlers. Both race against in-flight moves: whichever
// acquires the match row lock first wins, the other observes a
// non-playing status and aborts harmlessly.

func (m *MatchManager) handleTurnTimeout(matchID int) {
	if err := m.resolveTimeout(context.Background(), matchID, "turn_timeout"); err != nil {
		log.Printf("[TIMER] Turn timeout for match %d failed: %v", matchID, err)
	}
}

func (m *MatchManager) handleMatchTimeout(matchID int) {
	if err := m.resolveTimeout(context.Background(), matchID, "match_timeout"); err != nil {
		log.Printf("[TIMER] Match timeout for match %d failed: %v", matchID, err)
	}
}

// resolveTimeout forces a terminal state for the side whose turn it
// is. Policy: a bot is never forfeited on a turn deadline (its moves
// are synchronous, a stall means this process dropped the reply), it
// is nudged to move instead; a human timing out forfeits even against
// a bot, with the pot going to the platform because the bot account is
// not payable.
func (m *MatchManager) resolveTimeout(ctx context.Context, matchID int, reason string) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mt models.Match
	if err := tx.Get(&mt, `SELECT * FROM matches WHERE id=$1 FOR UPDATE`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	if mt.Status != StatusPlaying || !mt.OpponentID.Valid {
		m.timers.Cancel(matchID)
		return nil
	}

	// The in-memory timer is only a hint: it can fire before a move
	// committed here or in another process refreshed the row
	// timestamps. The row, read under lock, decides whether the
	// deadline actually elapsed; a stale expiry re-arms instead.
	turnIn, matchIn := m.remainingDeadlines(&mt, time.Now())
	elapsed := matchIn <= 0
	if reason == "turn_timeout" {
		elapsed = turnIn <= 0
	}
	if !elapsed {
		if err := tx.Rollback(); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		log.Printf("[TIMER] Match %d %s fired stale (turn in %v, match in %v), re-arming", matchID, reason, turnIn, matchIn)
		m.timers.StartWithRemaining(matchID, atLeast(turnIn, expiryGrace), atLeast(matchIn, expiryGrace))
		return nil
	}

	loserID := mt.CreatorID
	winnerID := int(mt.OpponentID.Int64)
	winnerTag := WinnerOpponent
	if mt.CurrentTurn == string(MarkB) {
		loserID = int(mt.OpponentID.Int64)
		winnerID = mt.CreatorID
		winnerTag = WinnerCreator
	}

	var loser, winner models.User
	if err := tx.Get(&loser, `SELECT * FROM users WHERE id=$1`, loserID); err != nil {
		return fmt.Errorf("failed to read user %d: %w", loserID, err)
	}
	if err := tx.Get(&winner, `SELECT * FROM users WHERE id=$1`, winnerID); err != nil {
		return fmt.Errorf("failed to read user %d: %w", winnerID, err)
	}

	if reason == "turn_timeout" && loser.IsBot {
		if err := tx.Rollback(); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		log.Printf("[TIMER] Match %d turn deadline hit the bot, nudging it to move", matchID)
		m.timers.ResetTurn(matchID)
		go m.playBotMove(matchID)
		return nil
	}

	var creditTo *int
	if !winner.IsBot && winner.Status == "active" {
		creditTo = &winnerID
	}
	pot := 2 * mt.Stake
	if err := ledger.SettleForfeit(tx, matchID, loserID, creditTo, pot); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE matches SET status='finished', winner=$1, finished_at=NOW() WHERE id=$2`, winnerTag, matchID); err != nil {
		return fmt.Errorf("failed to finish match %d: %w", matchID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	m.timers.Cancel(matchID)
	m.publishEvent(ctx, matchID, "finished", map[string]interface{}{"winner": winnerTag, "reason": reason})
	log.Printf("[TIMER] Match %d resolved by %s: loser=%d winner=%s pot=%d payable=%v",
		matchID, reason, loserID, winnerTag, pot, creditTo != nil)
	return nil
}

// expiryGrace is the floor on re-armed deadlines: an already-expired
// deadline fires shortly after arming rather than immediately.
const expiryGrace = 2 * time.Second

// remainingDeadlines derives how much turn and match time a playing
// match has left from its row timestamps. The turn clock counts from
// the last accepted move (falling back to start and creation times),
// the absolute match clock from started_at.
func (m *MatchManager) remainingDeadlines(mt *models.Match, now time.Time) (turnIn, matchIn time.Duration) {
	lastMove := mt.CreatedAt
	if mt.StartedAt.Valid {
		lastMove = mt.StartedAt.Time
	}
	if mt.LastMoveAt.Valid {
		lastMove = mt.LastMoveAt.Time
	}
	turnIn = lastMove.Add(m.turnTimeout()).Sub(now)
	matchIn = m.matchTimeout()
	if mt.StartedAt.Valid {
		matchIn = mt.StartedAt.Time.Add(m.matchTimeout()).Sub(now)
	}
	return turnIn, matchIn
}

func atLeast(d, floor time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}

// ReconcileTimers re-derives deadlines for matches left playing across
// a restart.
func (m *MatchManager) ReconcileTimers(ctx context.Context) error {
	var matches []models.Match
	if err := m.db.SelectContext(ctx, &matches, `SELECT * FROM matches WHERE status='playing'`); err != nil {
		return fmt.Errorf("failed to load playing matches: %w", err)
	}

	now := time.Now()
	for _, mt := range matches {
		turnIn, matchIn := m.remainingDeadlines(&mt, now)
		m.timers.StartWithRemaining(mt.ID, atLeast(turnIn, expiryGrace), atLeast(matchIn, expiryGrace))
	}
	if len(matches) > 0 {
		log.Printf("[TIMER] Reconciled deadlines for %d playing matches", len(matches))
	}
	return nil
}
