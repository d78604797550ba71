package models

import (
	"database/sql"
	"time"
)

// User represents an account holder. Bots are users with IsBot set;
// their balances move through the same ledger as everyone else's.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Balance      int64     `db:"balance" json:"balance"`
	Status       string    `db:"status" json:"status"`
	IsBot        bool      `db:"is_bot" json:"is_bot"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Match represents one game between two participants. CreatorName and
// OpponentName are per-match display identities so a bot keeps the same
// name for the life of one match without mutating the shared bot user.
type Match struct {
	ID           int            `db:"id" json:"id"`
	CreatorID    int            `db:"creator_id" json:"creator_id"`
	OpponentID   sql.NullInt64  `db:"opponent_id" json:"opponent_id,omitempty"`
	Board        string         `db:"board" json:"board"`
	CurrentTurn  string         `db:"current_turn" json:"current_turn"`
	Status       string         `db:"status" json:"status"`
	Winner       sql.NullString `db:"winner" json:"winner,omitempty"`
	Stake        int64          `db:"stake" json:"stake"`
	Fee          int64          `db:"fee" json:"fee"`
	CreatorName  string         `db:"creator_name" json:"creator_name"`
	OpponentName string         `db:"opponent_name" json:"opponent_name"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	StartedAt    sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   sql.NullTime   `db:"finished_at" json:"finished_at,omitempty"`
	LastMoveAt   sql.NullTime   `db:"last_move_at" json:"last_move_at,omitempty"`
}

// Bet is one participant's escrowed position in a match. Amount is the
// total debited (stake + fee), NetAmount the refundable stake portion.
type Bet struct {
	ID        int       `db:"id" json:"id"`
	MatchID   int       `db:"match_id" json:"match_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Amount    int64     `db:"amount" json:"amount"`
	NetAmount int64     `db:"net_amount" json:"net_amount"`
	FeeAmount int64     `db:"fee_amount" json:"fee_amount"`
	Refunded  bool      `db:"refunded" json:"refunded"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Move is one placed mark. Immutable once written; (match_id, position)
// is unique so two players can never claim the same cell.
type Move struct {
	ID        int       `db:"id" json:"id"`
	MatchID   int       `db:"match_id" json:"match_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Position  int       `db:"position" json:"position"`
	Mark      string    `db:"mark" json:"mark"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BalanceTransaction is an append-only ledger entry. UserID is null for
// platform-owned legs. ReferenceID is the idempotency key.
type BalanceTransaction struct {
	ID          int           `db:"id" json:"id"`
	UserID      sql.NullInt64 `db:"user_id" json:"user_id,omitempty"`
	Amount      int64         `db:"amount" json:"amount"`
	TxType      string        `db:"tx_type" json:"tx_type"`
	Source      string        `db:"source" json:"source"`
	ReferenceID string        `db:"reference_id" json:"reference_id"`
	Status      string        `db:"status" json:"status"`
	Description string        `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// AdminBalance is the single platform row accumulating fees and
// forfeitures.
type AdminBalance struct {
	ID        int       `db:"id" json:"id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
