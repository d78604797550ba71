package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/models"
)

// JoinResult is the outcome of a matchmaking request.
type JoinResult struct {
	Status       string `json:"status"` // "matched", "waiting" or "playing"
	MatchID      int    `json:"match_id"`
	Fee          int64  `json:"fee"`
	TotalDebited int64  `json:"total_debited"`
}

// CreateOrJoinMatch pairs the user with the oldest waiting match of
// equal stake, or creates a new waiting match. A lost concurrency race
// is retried once before surfacing.
func (m *MatchManager) CreateOrJoinMatch(ctx context.Context, userID int, stake int64) (*JoinResult, error) {
	var result *JoinResult
	err := runWithRetry("create_or_join", func() error {
		var rerr error
		result, rerr = m.createOrJoin(ctx, userID, stake)
		return rerr
	})
	return result, err
}

// createOrJoin runs one matchmaking attempt. The stake + fee is
// escrowed in the same transaction either way, before any match state
// changes. Lock order is user row first, match row second; the waiting
// search uses SKIP LOCKED so this path never blocks on a match row.
func (m *MatchManager) createOrJoin(ctx context.Context, userID int, stake int64) (*JoinResult, error) {
	if stake <= 0 || stake < m.cfg.MinStakeAmount || stake > m.cfg.MaxStakeAmount {
		return nil, ErrInvalidStake
	}
	fee := ledger.FeeFor(stake, m.cfg.FeePercent)

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := ledger.GetUserForUpdate(tx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != "active" {
		return nil, ErrAccountNotActive
	}

	// FIFO: oldest waiting match at this stake wins the pairing.
	// SKIP LOCKED means a concurrent joiner falls through to creating
	// its own waiting match instead of blocking or erroring.
	var mt models.Match
	err = tx.Get(&mt, `
		SELECT * FROM matches
		WHERE status = 'waiting' AND stake = $1 AND creator_id <> $2
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, stake, userID)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to search waiting matches: %w", err)
		}
		matchID, cerr := m.createWaiting(tx, user, stake, fee)
		if cerr != nil {
			return nil, cerr
		}
		if cerr := tx.Commit(); cerr != nil {
			return nil, fmt.Errorf("failed to commit: %w", cerr)
		}
		log.Printf("[MATCH] Match %d created waiting: creator=%d stake=%d fee=%d", matchID, userID, stake, fee)
		return &JoinResult{Status: "waiting", MatchID: matchID, Fee: fee, TotalDebited: stake + fee}, nil
	}

	if err := m.joinLocked(tx, &mt, user); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	m.afterMatchStart(ctx, mt.ID)
	log.Printf("[MATCH] Match %d paired: creator=%d opponent=%d stake=%d", mt.ID, mt.CreatorID, userID, stake)
	return &JoinResult{Status: "matched", MatchID: mt.ID, Fee: mt.Fee, TotalDebited: mt.Stake + mt.Fee}, nil
}

// JoinMatch joins one specific waiting match by id.
func (m *MatchManager) JoinMatch(ctx context.Context, userID, matchID int) (*JoinResult, error) {
	// Cheap unlocked status read first. This path locks the user row
	// before the match row; blocking on a playing match row from there
	// would invert the match-then-users order the settlement paths use
	// and invite a deadlock.
	status, err := m.matchStatusUnlocked(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if status != StatusWaiting {
		return nil, ErrMatchNotJoinable
	}

	var result *JoinResult
	err = runWithRetry("join", func() error {
		var rerr error
		result, rerr = m.joinSpecific(ctx, userID, matchID)
		return rerr
	})
	return result, err
}

func (m *MatchManager) joinSpecific(ctx context.Context, userID, matchID int) (*JoinResult, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := ledger.GetUserForUpdate(tx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != "active" {
		return nil, ErrAccountNotActive
	}

	var mt models.Match
	if err := tx.Get(&mt, `SELECT * FROM matches WHERE id=$1 FOR UPDATE`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	if mt.CreatorID == userID {
		return nil, ErrMatchNotJoinable
	}

	if err := m.joinLocked(tx, &mt, user); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	m.afterMatchStart(ctx, mt.ID)
	log.Printf("[MATCH] Match %d joined by user %d", mt.ID, userID)
	return &JoinResult{Status: StatusPlaying, MatchID: mt.ID, Fee: mt.Fee, TotalDebited: mt.Stake + mt.Fee}, nil
}

// matchStatusUnlocked reads a match status without taking any lock.
func (m *MatchManager) matchStatusUnlocked(ctx context.Context, matchID int) (string, error) {
	var status string
	if err := m.db.GetContext(ctx, &status, `SELECT status FROM matches WHERE id=$1`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMatchNotFound
		}
		return "", fmt.Errorf("failed to read match %d: %w", matchID, err)
	}
	return status, nil
}

// createWaiting escrows the creator's stake and inserts a fresh
// waiting match. Returns the new match id.
func (m *MatchManager) createWaiting(tx *sqlx.Tx, creator *models.User, stake, fee int64) (int, error) {
	var matchID int
	err := tx.QueryRowx(`
		INSERT INTO matches (creator_id, board, current_turn, status, stake, fee, creator_name, created_at)
		VALUES ($1, $2, $3, 'waiting', $4, $5, $6, NOW())
		RETURNING id
	`, creator.ID, m.lines.EmptyBoard(), string(MarkA), stake, fee, displayName(creator)).Scan(&matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to create match: %w", err)
	}
	if err := ledger.EscrowStake(tx, creator.ID, matchID, stake, fee); err != nil {
		return 0, err
	}
	if err := ledger.InsertBet(tx, matchID, creator.ID, stake, fee); err != nil {
		return 0, err
	}
	return matchID, nil
}

// joinLocked attaches a locked user to a locked waiting match:
// escrow, bet, then the single waiting -> playing transition.
func (m *MatchManager) joinLocked(tx *sqlx.Tx, mt *models.Match, joiner *models.User) error {
	if mt.Status != StatusWaiting || mt.OpponentID.Valid {
		return ErrMatchNotJoinable
	}
	if err := ledger.EscrowStake(tx, joiner.ID, mt.ID, mt.Stake, mt.Fee); err != nil {
		return err
	}
	if err := ledger.InsertBet(tx, mt.ID, joiner.ID, mt.Stake, mt.Fee); err != nil {
		return err
	}
	_, err := tx.Exec(`
		UPDATE matches
		SET opponent_id=$1, opponent_name=$2, status='playing', current_turn=$3, started_at=NOW(), last_move_at=NOW()
		WHERE id=$4
	`, joiner.ID, displayName(joiner), string(MarkA), mt.ID)
	if err != nil {
		return fmt.Errorf("failed to start match %d: %w", mt.ID, err)
	}
	return nil
}

// afterMatchStart arms the per-match deadlines and announces the pairing.
func (m *MatchManager) afterMatchStart(ctx context.Context, matchID int) {
	m.timers.Start(matchID)
	m.publishEvent(ctx, matchID, "matched", nil)
}

func displayName(u *models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
