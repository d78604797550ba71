package game

import (
	"errors"
	"log"

	"github.com/lib/pq"
	"github.com/playgrid/backend/internal/ledger"
)

// isRetryable reports whether err is a lost concurrency race the
// operation can safely run again. A duplicate ledger reference means a
// rival settlement committed first; the retry observes its rows and
// becomes a no-op. Postgres deadlock and serialization aborts roll the
// whole transaction back before surfacing, so nothing partial remains.
func isRetryable(err error) bool {
	if errors.Is(err, ledger.ErrDuplicateReference) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40P01" || pqErr.Code == "40001"
	}
	return false
}

// runWithRetry executes op, retrying exactly once after a retryable
// failure. Concurrency losses reach the caller only when they repeat.
func runWithRetry(tag string, op func() error) error {
	err := op()
	if err == nil || !isRetryable(err) {
		return err
	}
	log.Printf("[MATCH] %s lost a concurrency race (%v), retrying once", tag, err)
	return op()
}
