package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playgrid/backend/internal/models"
)

// transaction source tags
const (
	SourceStake    = "stake"
	SourceFee      = "fee"
	SourcePayout   = "payout"
	SourceRefund   = "refund"
	SourceForfeit  = "forfeit"
	SourceCancel   = "cancel"
	SourceBotTopup = "bot_topup"
)

// BotUsername is the shared bot account. Per-match bot display names
// live on the match row, never here.
const BotUsername = "gridbot"

var (
	// ErrInsufficientFunds means the locked user row cannot cover
	// stake + fee. The caller must abort its transaction.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateReference means a concurrent transaction inserted the
	// same reference id first. The whole operation is safe to retry
	// once; the retry observes the existing row and becomes a no-op.
	ErrDuplicateReference = errors.New("duplicate ledger reference")
)

// All mutating functions in this package take an explicit *sqlx.Tx and
// assume the caller locked the relevant user rows (users before match,
// always). Nothing here begins or commits a transaction.

// GetUserForUpdate reads a user row with an exclusive row lock.
func GetUserForUpdate(tx *sqlx.Tx, userID int) (*models.User, error) {
	var u models.User
	err := tx.Get(&u, `SELECT * FROM users WHERE id=$1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return &u, nil
}

func adjustUserBalance(tx *sqlx.Tx, userID int, delta int64) error {
	res, err := tx.Exec(`UPDATE users SET balance = balance + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust balance of user %d by %d: %w", userID, delta, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("balance adjust touched %d rows for user %d", n, userID)
	}
	return nil
}

func creditPlatform(tx *sqlx.Tx, delta int64) error {
	res, err := tx.Exec(`UPDATE admin_balance SET balance = balance + $1, updated_at = NOW() WHERE id = 1`, delta)
	if err != nil {
		return fmt.Errorf("failed to credit platform balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("platform balance row missing")
	}
	return nil
}

func transactionExists(tx *sqlx.Tx, referenceID string) (bool, error) {
	var exists bool
	err := tx.Get(&exists, `SELECT EXISTS (SELECT 1 FROM balance_transactions WHERE reference_id=$1)`, referenceID)
	if err != nil {
		return false, fmt.Errorf("failed to check reference %q: %w", referenceID, err)
	}
	return exists, nil
}

// insertTransaction appends one ledger leg. The amount is signed;
// tx_type is derived from the sign. A unique violation on reference_id
// aborts the enclosing transaction with ErrDuplicateReference.
func insertTransaction(tx *sqlx.Tx, userID *int, amount int64, source, referenceID, description string) error {
	txType := "credit"
	if amount < 0 {
		txType = "debit"
	}
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: int64(*userID), Valid: true}
	}
	_, err := tx.Exec(`
		INSERT INTO balance_transactions (user_id, amount, tx_type, source, reference_id, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, 'completed', $6, NOW())
	`, uid, amount, txType, source, referenceID, description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			log.Printf("[LEDGER] Duplicate reference %s lost an insert race", referenceID)
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert balance transaction %q: %w", referenceID, err)
	}
	log.Printf("[LEDGER] Recorded %s: ref=%s amount=%d user=%v", source, referenceID, amount, uid)
	return nil
}

// ApplyFeeOnce debits userID by fee and credits the platform, recording
// both legs, only if the legs do not already exist. If the platform leg
// exists but the user leg is missing (a prior partial run), only the
// user leg is backfilled. Returns the fee applied, 0 if nothing was.
func ApplyFeeOnce(tx *sqlx.Tx, matchID, userID int, fee int64) (int64, error) {
	if fee <= 0 {
		return 0, nil
	}

	userDone, err := transactionExists(tx, FeeRef(matchID, userID))
	if err != nil {
		return 0, err
	}
	platformDone, err := transactionExists(tx, FeePlatformRef(matchID, userID))
	if err != nil {
		return 0, err
	}
	if userDone && platformDone {
		log.Printf("[LEDGER] Fee already collected for match %d user %d", matchID, userID)
		return 0, nil
	}

	if !userDone {
		if err := adjustUserBalance(tx, userID, -fee); err != nil {
			return 0, err
		}
		if err := insertTransaction(tx, &userID, -fee, SourceFee, FeeRef(matchID, userID), "service fee"); err != nil {
			return 0, err
		}
	}
	if !platformDone {
		if err := creditPlatform(tx, fee); err != nil {
			return 0, err
		}
		if err := insertTransaction(tx, nil, fee, SourceFee, FeePlatformRef(matchID, userID), "service fee collected"); err != nil {
			return 0, err
		}
	}
	return fee, nil
}

// EscrowStake debits stake + fee from a user the caller has already
// locked, recording the stake leg and collecting the fee. Fails with
// ErrInsufficientFunds when the balance cannot cover both.
func EscrowStake(tx *sqlx.Tx, userID, matchID int, stake, fee int64) error {
	var balance int64
	if err := tx.Get(&balance, `SELECT balance FROM users WHERE id=$1`, userID); err != nil {
		return fmt.Errorf("failed to read balance of user %d: %w", userID, err)
	}
	if balance < stake+fee {
		return ErrInsufficientFunds
	}

	staked, err := transactionExists(tx, StakeRef(matchID, userID))
	if err != nil {
		return err
	}
	if !staked {
		if err := adjustUserBalance(tx, userID, -stake); err != nil {
			return err
		}
		if err := insertTransaction(tx, &userID, -stake, SourceStake, StakeRef(matchID, userID), "stake escrowed"); err != nil {
			return err
		}
	}

	if _, err := ApplyFeeOnce(tx, matchID, userID, fee); err != nil {
		return err
	}
	return nil
}

// InsertBet records one participant's escrowed position.
func InsertBet(tx *sqlx.Tx, matchID, userID int, stake, fee int64) error {
	_, err := tx.Exec(`
		INSERT INTO bets (match_id, user_id, amount, net_amount, fee_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, matchID, userID, stake+fee, stake, fee)
	if err != nil {
		return fmt.Errorf("failed to insert bet for match %d user %d: %w", matchID, userID, err)
	}
	return nil
}

// SettleWin credits the winner with the full pot. At-most-once per
// match: the caller holds the match row lock and has verified the
// status is not yet finished; the payout reference id backstops that.
func SettleWin(tx *sqlx.Tx, matchID, winnerID int, pot int64) error {
	paid, err := transactionExists(tx, PayoutRef(matchID))
	if err != nil {
		return err
	}
	if paid {
		log.Printf("[LEDGER] Payout already recorded for match %d", matchID)
		return nil
	}
	if err := adjustUserBalance(tx, winnerID, pot); err != nil {
		return err
	}
	return insertTransaction(tx, &winnerID, pot, SourcePayout, PayoutRef(matchID), "winner payout")
}

// SettleDraw refunds each participant's net stake. Fees are never
// refunded on a draw.
func SettleDraw(tx *sqlx.Tx, matchID int) error {
	var bets []models.Bet
	if err := tx.Select(&bets, `SELECT * FROM bets WHERE match_id=$1 ORDER BY id FOR UPDATE`, matchID); err != nil {
		return fmt.Errorf("failed to lock bets for match %d: %w", matchID, err)
	}
	for _, b := range bets {
		if b.Refunded {
			continue
		}
		refunded, err := transactionExists(tx, RefundRef(matchID, b.UserID))
		if err != nil {
			return err
		}
		if !refunded {
			if err := adjustUserBalance(tx, b.UserID, b.NetAmount); err != nil {
				return err
			}
			uid := b.UserID
			if err := insertTransaction(tx, &uid, b.NetAmount, SourceRefund, RefundRef(matchID, b.UserID), "draw refund"); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`UPDATE bets SET refunded=TRUE WHERE id=$1`, b.ID); err != nil {
			return fmt.Errorf("failed to flag bet %d refunded: %w", b.ID, err)
		}
	}
	return nil
}

// SettleForfeit resolves a timeout. The pot goes to creditTo when the
// winner holds a payable account, otherwise to the platform (the case
// where a bot "wins" against a human or the winner is not payable).
func SettleForfeit(tx *sqlx.Tx, matchID, loserID int, creditTo *int, pot int64) error {
	done, err := transactionExists(tx, ForfeitRef(matchID))
	if err != nil {
		return err
	}
	if done {
		log.Printf("[LEDGER] Forfeit already settled for match %d", matchID)
		return nil
	}
	desc := fmt.Sprintf("forfeit by user %d", loserID)
	if creditTo != nil {
		if err := adjustUserBalance(tx, *creditTo, pot); err != nil {
			return err
		}
		return insertTransaction(tx, creditTo, pot, SourceForfeit, ForfeitRef(matchID), desc)
	}
	if err := creditPlatform(tx, pot); err != nil {
		return err
	}
	return insertTransaction(tx, nil, pot, SourceForfeit, ForfeitRef(matchID), desc+" (pot to platform)")
}

// RefundCancelled returns the creator's full stake + fee. The fee comes
// back here because no game was ever played; the platform side of the
// collected fee is reversed as part of the same leg.
func RefundCancelled(tx *sqlx.Tx, matchID, creatorID int, stake, fee int64) error {
	done, err := transactionExists(tx, CancelRef(matchID, creatorID))
	if err != nil {
		return err
	}
	if done {
		log.Printf("[LEDGER] Cancel refund already recorded for match %d", matchID)
		return nil
	}
	if err := adjustUserBalance(tx, creatorID, stake+fee); err != nil {
		return err
	}
	if fee > 0 {
		if err := creditPlatform(tx, -fee); err != nil {
			return err
		}
	}
	if err := insertTransaction(tx, &creatorID, stake+fee, SourceCancel, CancelRef(matchID, creatorID), "match cancelled"); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE bets SET refunded=TRUE WHERE match_id=$1 AND user_id=$2`, matchID, creatorID); err != nil {
		return fmt.Errorf("failed to flag cancelled bet for match %d: %w", matchID, err)
	}
	return nil
}

// TopUpBot credits the bot account up to the amount a match requires.
// The bot is a liquidity backstop, not a player with real constraints,
// so it is allowed to mint its own stake.
func TopUpBot(tx *sqlx.Tx, botID, matchID int, required int64) error {
	var balance int64
	if err := tx.Get(&balance, `SELECT balance FROM users WHERE id=$1`, botID); err != nil {
		return fmt.Errorf("failed to read bot balance: %w", err)
	}
	if balance >= required {
		return nil
	}
	deficit := required - balance
	if err := adjustUserBalance(tx, botID, deficit); err != nil {
		return err
	}
	return insertTransaction(tx, &botID, deficit, SourceBotTopup, BotTopupRef(matchID, botID), "bot liquidity top-up")
}

// GetOrCreateBotUser returns the shared bot account, creating it if missing.
func GetOrCreateBotUser(db *sqlx.DB) (*models.User, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	var u models.User
	if err := db.Get(&u, `SELECT * FROM users WHERE username=$1`, BotUsername); err == nil {
		return &u, nil
	}
	// create; "!" is an unusable password hash, the bot never logs in
	if _, err := db.Exec(`
		INSERT INTO users (username, password_hash, display_name, balance, status, is_bot, created_at)
		VALUES ($1, '!', 'Grid Bot', 0, 'active', TRUE, NOW())
		ON CONFLICT (username) DO NOTHING
	`, BotUsername); err != nil {
		return nil, fmt.Errorf("failed to create bot user: %w", err)
	}
	if err := db.Get(&u, `SELECT * FROM users WHERE username=$1`, BotUsername); err != nil {
		return nil, fmt.Errorf("failed to load bot user: %w", err)
	}
	return &u, nil
}
