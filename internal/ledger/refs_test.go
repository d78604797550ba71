package ledger

import (
	"testing"
)

func TestReferenceIDFormats(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{StakeRef(12, 7), "match:12:stake:7"},
		{FeeRef(12, 7), "match:12:fee:7"},
		{FeePlatformRef(12, 7), "match:12:fee:7:platform"},
		{PayoutRef(12), "match:12:payout"},
		{RefundRef(12, 7), "match:12:refund:7"},
		{CancelRef(12, 7), "match:12:cancel:7"},
		{ForfeitRef(12), "match:12:forfeit"},
		{BotTopupRef(12, 7), "match:12:bot_topup:7"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("reference id mismatch: got %q want %q", c.got, c.want)
		}
	}
}

func TestReferenceIDsAreDistinctPerParticipant(t *testing.T) {
	// two participants of the same match must never share a reference
	refs := []string{
		StakeRef(5, 1), StakeRef(5, 2),
		FeeRef(5, 1), FeeRef(5, 2),
		FeePlatformRef(5, 1), FeePlatformRef(5, 2),
		RefundRef(5, 1), RefundRef(5, 2),
		PayoutRef(5), ForfeitRef(5),
	}
	seen := map[string]bool{}
	for _, r := range refs {
		if seen[r] {
			t.Errorf("duplicate reference id generated: %q", r)
		}
		seen[r] = true
	}
}

func TestFeeFor(t *testing.T) {
	cases := []struct {
		stake      int64
		feePercent int64
		want       int64
	}{
		{100, 10, 10},   // the canonical scenario: stake 100, fee 10
		{1000, 10, 100},
		{99, 10, 9},     // truncates toward zero
		{100, 0, 0},
		{100, -5, 0},
		{1, 10, 0},
	}
	for _, c := range cases {
		if got := FeeFor(c.stake, c.feePercent); got != c.want {
			t.Errorf("FeeFor(%d, %d) = %d, want %d", c.stake, c.feePercent, got, c.want)
		}
	}
}

func TestEscrowAndPotArithmetic(t *testing.T) {
	// stake=100, fee=10: each side escrows 110, the pot is exactly
	// 2x stake, and the platform keeps 2x fee whoever wins.
	const stake, feePercent = int64(100), int64(10)
	fee := FeeFor(stake, feePercent)

	escrowPerPlayer := stake + fee
	if escrowPerPlayer != 110 {
		t.Errorf("escrow per player = %d, want 110", escrowPerPlayer)
	}
	pot := 2 * stake
	if pot != 200 {
		t.Errorf("pot = %d, want 200", pot)
	}
	platformTake := 2 * fee
	if platformTake != 20 {
		t.Errorf("platform take = %d, want 20", platformTake)
	}
	// a draw returns each net stake; fees stay collected
	if refund := stake; 2*escrowPerPlayer-2*refund != platformTake {
		t.Errorf("draw refund accounting does not balance")
	}
}
