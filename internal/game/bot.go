package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/playgrid/backend/internal/ledger"
	"github.com/playgrid/backend/internal/models"
)

// Rotating per-match bot identities. The name lives on the match row
// so concurrent matches never show the same bot under clashing names.
var botNames = []string{
	"Ada", "Blitz", "Cipher", "Dot", "Echo", "Fawkes",
	"Gizmo", "Halcyon", "Iris", "Jolt", "Kepler", "Lumen",
	"Mox", "Nimbus", "Orbit", "Pixel", "Quark", "Rook",
}

type namePool struct {
	mu  sync.Mutex
	idx int
}

func newNamePool() *namePool {
	return &namePool{}
}

func (p *namePool) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := botNames[p.idx%len(botNames)]
	p.idx++
	return name
}

// ChooseBotMove picks a cell for botMark: take an immediate win, else
// block the opponent's immediate win, else prefer cells near the board
// center, picked at random from a small shortlist so play is not fully
// deterministic. pick is called with the shortlist size and must
// return an index into it.
func ChooseBotMove(l *Lines, board string, botMark byte, pick func(n int) int) int {
	if pos := completingCell(l, board, botMark); pos >= 0 {
		return pos
	}
	if pos := completingCell(l, board, otherMark(botMark)); pos >= 0 {
		return pos
	}

	empties := make([]int, 0, l.Size())
	for i := 0; i < len(board); i++ {
		if board[i] == CellEmpty {
			empties = append(empties, i)
		}
	}
	if len(empties) == 0 {
		return -1
	}

	centerR := float64(l.rows-1) / 2
	centerC := float64(l.cols-1) / 2
	sort.Slice(empties, func(a, b int) bool {
		return centerDist(empties[a], l.cols, centerR, centerC) < centerDist(empties[b], l.cols, centerR, centerC)
	})

	shortlist := 4
	if len(empties) < shortlist {
		shortlist = len(empties)
	}
	return empties[pick(shortlist)]
}

// completingCell returns the empty cell of any window holding K-1
// marks for mark and nothing else, or -1.
func completingCell(l *Lines, board string, mark byte) int {
	for _, win := range l.wins {
		count := 0
		empty := -1
		for _, cell := range win {
			switch board[cell] {
			case mark:
				count++
			case CellEmpty:
				empty = cell
			}
		}
		if count == l.winLen-1 && empty >= 0 {
			return empty
		}
	}
	return -1
}

func centerDist(pos, cols int, centerR, centerC float64) float64 {
	r := float64(pos / cols)
	c := float64(pos % cols)
	dr := r - centerR
	dc := c - centerC
	return dr*dr + dc*dc
}

// RequestBotOpponent attaches the bot to a waiting match through the
// same escrow path a human uses; the bot tops itself up first if its
// balance cannot cover stake + fee.
func (m *MatchManager) RequestBotOpponent(ctx context.Context, matchID int) (*JoinResult, error) {
	// Same unlocked pre-read as JoinMatch: this path holds the bot's
	// user row while waiting on the match row, and the bot user appears
	// in many concurrent matches' settlement paths.
	status, err := m.matchStatusUnlocked(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if status != StatusWaiting {
		return nil, ErrMatchNotJoinable
	}

	var result *JoinResult
	err = runWithRetry("bot_attach", func() error {
		var rerr error
		result, rerr = m.attachBotOpponent(ctx, matchID)
		return rerr
	})
	return result, err
}

func (m *MatchManager) attachBotOpponent(ctx context.Context, matchID int) (*JoinResult, error) {
	bot, err := ledger.GetOrCreateBotUser(m.db)
	if err != nil {
		return nil, err
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// bot user row first, match row second
	botRow, err := ledger.GetUserForUpdate(tx, bot.ID)
	if err != nil {
		return nil, err
	}

	var mt models.Match
	if err := tx.Get(&mt, `SELECT * FROM matches WHERE id=$1 FOR UPDATE`, matchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	if mt.Status != StatusWaiting || mt.OpponentID.Valid || mt.CreatorID == bot.ID {
		return nil, ErrMatchNotJoinable
	}

	if err := ledger.TopUpBot(tx, bot.ID, matchID, mt.Stake+mt.Fee); err != nil {
		return nil, err
	}
	if err := ledger.EscrowStake(tx, bot.ID, matchID, mt.Stake, mt.Fee); err != nil {
		return nil, err
	}
	if err := ledger.InsertBet(tx, matchID, bot.ID, mt.Stake, mt.Fee); err != nil {
		return nil, err
	}

	name := m.names.next()
	_, err = tx.Exec(`
		UPDATE matches
		SET opponent_id=$1, opponent_name=$2, status='playing', current_turn=$3, started_at=NOW(), last_move_at=NOW()
		WHERE id=$4
	`, bot.ID, name, string(MarkA), matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach bot to match %d: %w", matchID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	m.afterMatchStart(ctx, matchID)
	log.Printf("[BOT] Bot %q (user %d) attached to match %d, balance=%d", name, bot.ID, matchID, botRow.Balance)
	return &JoinResult{Status: StatusPlaying, MatchID: matchID, Fee: mt.Fee, TotalDebited: mt.Stake + mt.Fee}, nil
}

// playBotMove plays one bot turn through the normal transactional move
// path. A lost cell race or stale turn is retried once; after that the
// turn deadline owns the outcome.
func (m *MatchManager) playBotMove(matchID int) {
	time.Sleep(time.Duration(m.cfg.BotThinkMillis) * time.Millisecond)

	bot, err := ledger.GetOrCreateBotUser(m.db)
	if err != nil {
		log.Printf("[BOT] No bot account for match %d: %v", matchID, err)
		return
	}

	ctx := context.Background()
	for attempt := 0; attempt < 2; attempt++ {
		snap, err := m.GetMatch(ctx, matchID)
		if err != nil {
			log.Printf("[BOT] Failed to load match %d: %v", matchID, err)
			return
		}
		mt := snap.Match
		if mt.Status != StatusPlaying || !mt.OpponentID.Valid || int(mt.OpponentID.Int64) != bot.ID {
			return
		}
		botMark := MarkB
		if mt.CurrentTurn != string(botMark) {
			return
		}

		pos := ChooseBotMove(m.lines, mt.Board, botMark, m.randIntn)
		if pos < 0 {
			return
		}
		_, err = m.PlayMove(ctx, bot.ID, matchID, pos)
		if err == nil {
			log.Printf("[BOT] Match %d: bot played position %d", matchID, pos)
			return
		}
		if errors.Is(err, ErrPositionTaken) || errors.Is(err, ErrNotYourTurn) {
			log.Printf("[BOT] Match %d: move race lost (%v), retrying once", matchID, err)
			continue
		}
		log.Printf("[BOT] Match %d: bot move failed: %v", matchID, err)
		return
	}
}
