package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playgrid/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// MatchManager owns the match lifecycle: matchmaking, move application,
// timers and bot play. All game-state correctness is delegated to
// row-locked DB transactions; the manager itself only keeps the
// in-memory timer registry and precomputed board geometry.
type MatchManager struct {
	db     *sqlx.DB
	rdb    *redis.Client
	cfg    *config.Config
	lines  *Lines
	timers *TimerRegistry
	names  *namePool

	randMu sync.Mutex
	rng    *rand.Rand
}

var (
	// Global match manager instance
	Manager *MatchManager
)

// InitializeManager initializes the global match manager and
// reconciles timers for matches left playing across a restart.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewMatchManager(db, rdb, cfg)
	if err := Manager.ReconcileTimers(context.Background()); err != nil {
		log.Printf("[TIMER] Reconciliation failed: %v", err)
	}
}

// NewMatchManager creates a match manager for the configured board.
func NewMatchManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *MatchManager {
	m := &MatchManager{
		db:    db,
		rdb:   rdb,
		cfg:   cfg,
		lines: NewLines(cfg.BoardRows, cfg.BoardCols, cfg.WinLength),
		names: newNamePool(),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.timers = NewTimerRegistry(m.turnTimeout(), m.matchTimeout(), m.handleTurnTimeout, m.handleMatchTimeout)
	return m
}

func (m *MatchManager) turnTimeout() time.Duration {
	return time.Duration(m.cfg.TurnTimeoutSeconds) * time.Second
}

func (m *MatchManager) matchTimeout() time.Duration {
	return time.Duration(m.cfg.MatchTimeoutMinutes) * time.Minute
}

// Lines exposes the board geometry (used by handlers for validation).
func (m *MatchManager) Lines() *Lines {
	return m.lines
}

func (m *MatchManager) randIntn(n int) int {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rng.Intn(n)
}
