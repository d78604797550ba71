package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/models"
)

// Snapshot is the public view of a match: the row with resolved
// display identities plus its ordered move list.
type Snapshot struct {
	Match models.Match  `json:"match"`
	Moves []models.Move `json:"moves"`
}

// PlayMove applies one move for userID on matchID. A lost concurrency
// race is retried once before surfacing.
func (m *MatchManager) PlayMove(ctx context.Context, userID, matchID, position int) (*Snapshot, error) {
	var snap *Snapshot
	err := runWithRetry("move", func() error {
		var rerr error
		snap, rerr = m.playMove(ctx, userID, matchID, position)
		return rerr
	})
	return snap, err
}

// playMove runs one move attempt. The match row is locked for the
// whole mutation; when the move is terminal the settlement runs inside
// the same transaction as the status flip, so a crash can never leave
// a paid-but-unfinished or finished-but-unpaid match behind.
func (m *MatchManager) playMove(ctx context.Context, userID, matchID, position int) (*Snapshot, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var mt models.Match
	if err := tx.Get(&mt, `SELECT * FROM matches WHERE id=$1 FOR UPDATE`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}

	if mt.Status != StatusPlaying {
		return nil, ErrMatchNotPlaying
	}

	var mark byte
	switch {
	case userID == mt.CreatorID:
		mark = MarkA
	case mt.OpponentID.Valid && userID == int(mt.OpponentID.Int64):
		mark = MarkB
	default:
		return nil, ErrNotParticipant
	}

	if len(mt.CurrentTurn) != 1 || mt.CurrentTurn[0] != mark {
		return nil, ErrNotYourTurn
	}
	if !m.lines.ValidPosition(position) {
		return nil, ErrInvalidPosition
	}
	if mt.Board[position] != CellEmpty {
		return nil, ErrPositionTaken
	}

	// The unique constraint on (match_id, position) is the second line
	// of defense if two moves race past the board check.
	_, err = tx.Exec(`
		INSERT INTO moves (match_id, user_id, position, mark, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, matchID, userID, position, string(mark))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrPositionTaken
		}
		return nil, fmt.Errorf("failed to insert move: %w", err)
	}

	board := m.lines.Place(mt.Board, position, mark)

	switch {
	case m.lines.WinnerAt(board, position):
		winner := WinnerCreator
		if mark == MarkB {
			winner = WinnerOpponent
		}
		pot := 2 * mt.Stake
		if err := ledger.SettleWin(tx, matchID, userID, pot); err != nil {
			return nil, err
		}
		_, err = tx.Exec(`
			UPDATE matches SET board=$1, status='finished', winner=$2, finished_at=NOW(), last_move_at=NOW()
			WHERE id=$3
		`, board, winner, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to finish match %d: %w", matchID, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		m.timers.Cancel(matchID)
		m.publishEvent(ctx, matchID, "finished", map[string]interface{}{"winner": winner})
		log.Printf("[MATCH] Match %d won by %s (user %d), pot=%d", matchID, winner, userID, pot)
		return m.GetMatch(ctx, matchID)

	case m.lines.IsFull(board):
		if err := ledger.SettleDraw(tx, matchID); err != nil {
			return nil, err
		}
		_, err = tx.Exec(`
			UPDATE matches SET board=$1, status='finished', winner=$2, finished_at=NOW(), last_move_at=NOW()
			WHERE id=$3
		`, board, WinnerDraw, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to finish match %d: %w", matchID, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		m.timers.Cancel(matchID)
		m.publishEvent(ctx, matchID, "finished", map[string]interface{}{"winner": WinnerDraw})
		log.Printf("[MATCH] Match %d drawn, stakes refunded", matchID)
		return m.GetMatch(ctx, matchID)
	}

	// Non-terminal: flip the turn and find out whether a bot replies.
	next := otherMark(mark)
	nextUserID := mt.CreatorID
	if next == MarkB {
		nextUserID = int(mt.OpponentID.Int64)
	}
	var nextIsBot bool
	if err := tx.Get(&nextIsBot, `SELECT is_bot FROM users WHERE id=$1`, nextUserID); err != nil {
		return nil, fmt.Errorf("failed to read next player %d: %w", nextUserID, err)
	}

	_, err = tx.Exec(`
		UPDATE matches SET board=$1, current_turn=$2, last_move_at=NOW()
		WHERE id=$3
	`, board, string(next), matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to update match %d: %w", matchID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	m.timers.ResetTurn(matchID)
	m.publishEvent(ctx, matchID, "move", map[string]interface{}{"position": position, "mark": string(mark)})
	if nextIsBot {
		go m.playBotMove(matchID)
	}
	return m.GetMatch(ctx, matchID)
}

// CancelMatch lets the creator withdraw a match nobody has joined,
// refunding the full stake + fee.
func (m *MatchManager) CancelMatch(ctx context.Context, userID, matchID int) error {
	// Unlocked status read before the user-then-match lock sequence;
	// waiting on a playing match row while holding the creator's user
	// row would invert the settlement paths' lock order.
	status, err := m.matchStatusUnlocked(ctx, matchID)
	if err != nil {
		return err
	}
	if status != StatusWaiting {
		return ErrMatchNotCancellable
	}

	return runWithRetry("cancel", func() error {
		return m.cancelMatch(ctx, userID, matchID)
	})
}

func (m *MatchManager) cancelMatch(ctx context.Context, userID, matchID int) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// user row first, match row second
	if _, err := ledger.GetUserForUpdate(tx, userID); err != nil {
		return err
	}

	var mt models.Match
	if err := tx.Get(&mt, `SELECT * FROM matches WHERE id=$1 FOR UPDATE`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	if mt.CreatorID != userID {
		return ErrNotCreator
	}
	if mt.Status != StatusWaiting || mt.OpponentID.Valid {
		return ErrMatchNotCancellable
	}

	if err := ledger.RefundCancelled(tx, matchID, userID, mt.Stake, mt.Fee); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE matches SET status='cancelled', finished_at=NOW() WHERE id=$1`, matchID); err != nil {
		return fmt.Errorf("failed to cancel match %d: %w", matchID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	m.publishEvent(ctx, matchID, "cancelled", nil)
	log.Printf("[MATCH] Match %d cancelled by creator %d, refunded=%d", matchID, userID, mt.Stake+mt.Fee)
	return nil
}

// GetMatch returns the public snapshot of a match.
func (m *MatchManager) GetMatch(ctx context.Context, matchID int) (*Snapshot, error) {
	var mt models.Match
	if err := m.db.GetContext(ctx, &mt, `SELECT * FROM matches WHERE id=$1`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	moves := []models.Move{}
	if err := m.db.SelectContext(ctx, &moves, `SELECT * FROM moves WHERE match_id=$1 ORDER BY id`, matchID); err != nil {
		return nil, fmt.Errorf("failed to load moves for match %d: %w", matchID, err)
	}
	return &Snapshot{Match: mt, Moves: moves}, nil
}

// ListMatchesForUser returns the user's matches, newest first.
func (m *MatchManager) ListMatchesForUser(ctx context.Context, userID, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	matches := []models.Match{}
	err := m.db.SelectContext(ctx, &matches, `
		SELECT * FROM matches
		WHERE creator_id = $1 OR opponent_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	return matches, nil
}
