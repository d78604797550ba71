package game

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/playgrid/backend/internal/ledger"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate reference", ledger.ErrDuplicateReference, true},
		{"wrapped duplicate reference", fmt.Errorf("settle: %w", ledger.ErrDuplicateReference), true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"precondition", ErrNotYourTurn, false},
		{"nil", nil, false},
	}
	for _, c := range cases {
		if got := isRetryable(c.err); got != c.want {
			t.Errorf("%s: isRetryable = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRunWithRetryRecoversOnce(t *testing.T) {
	calls := 0
	err := runWithRetry("op", func() error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40P01"}
		}
		return nil
	})
	if err != nil {
		t.Errorf("second attempt succeeded but error surfaced: %v", err)
	}
	if calls != 2 {
		t.Errorf("op ran %d times, want 2", calls)
	}
}

func TestRunWithRetrySurfacesRepeatedLoss(t *testing.T) {
	calls := 0
	err := runWithRetry("op", func() error {
		calls++
		return ledger.ErrDuplicateReference
	})
	if err == nil {
		t.Fatalf("repeated loss must surface an error")
	}
	if calls != 2 {
		t.Errorf("op ran %d times, want exactly 2", calls)
	}
}

func TestRunWithRetryDoesNotRetryPreconditions(t *testing.T) {
	calls := 0
	err := runWithRetry("op", func() error {
		calls++
		return ErrPositionTaken
	})
	if err != ErrPositionTaken {
		t.Errorf("got %v, want ErrPositionTaken", err)
	}
	if calls != 1 {
		t.Errorf("precondition errors must not be retried, op ran %d times", calls)
	}
}
