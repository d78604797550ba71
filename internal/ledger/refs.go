package ledger

import "fmt"

// Deterministic reference ids. Every financial leg of a match is keyed
// by one of these, and balance_transactions.reference_id is unique, so
// a retried or racing settlement can never apply twice.

func StakeRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:stake:%d", matchID, userID)
}

func FeeRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:fee:%d", matchID, userID)
}

func FeePlatformRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:fee:%d:platform", matchID, userID)
}

func PayoutRef(matchID int) string {
	return fmt.Sprintf("match:%d:payout", matchID)
}

func RefundRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:refund:%d", matchID, userID)
}

func CancelRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:cancel:%d", matchID, userID)
}

func ForfeitRef(matchID int) string {
	return fmt.Sprintf("match:%d:forfeit", matchID)
}

func BotTopupRef(matchID, userID int) string {
	return fmt.Sprintf("match:%d:bot_topup:%d", matchID, userID)
}

// FeeFor computes the per-participant service fee for a stake.
func FeeFor(stake, feePercent int64) int64 {
	if feePercent <= 0 {
		return 0
	}
	return stake * feePercent / 100
}
