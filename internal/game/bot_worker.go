package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playgrid/backend/internal/config"
)

// StartBotWorker runs the bot-attach fallback: any match still waiting
// after the configured wait window gets the bot as opponent so the
// creator is never stuck. RequestBotOpponent re-checks joinability
// under the match row lock, so racing a human joiner is harmless.
func StartBotWorker(ctx context.Context, db *sqlx.DB, cfg *config.Config) {
	interval := time.Duration(cfg.BotWorkerPollSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[BOT] Starting bot fallback worker (poll every %v, wait window %ds)", interval, cfg.BotWaitSeconds)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[BOT] Worker stopped")
			return
		case <-ticker.C:
			attachStaleBots(ctx, db, cfg)
		}
	}
}

func attachStaleBots(ctx context.Context, db *sqlx.DB, cfg *config.Config) {
	var ids []int
	err := db.SelectContext(ctx, &ids, `
		SELECT id FROM matches
		WHERE status = 'waiting'
		  AND created_at < NOW() - ($1 * INTERVAL '1 second')
		ORDER BY id
		LIMIT 20
	`, cfg.BotWaitSeconds)
	if err != nil {
		log.Printf("[BOT] Failed to scan waiting matches: %v", err)
		return
	}

	for _, id := range ids {
		if _, err := Manager.RequestBotOpponent(ctx, id); err != nil {
			// a human beat us to it, or the creator cancelled
			if errors.Is(err, ErrMatchNotJoinable) || errors.Is(err, ErrMatchNotFound) {
				continue
			}
			log.Printf("[BOT] Failed to attach bot to match %d: %v", id, err)
		}
	}
}
