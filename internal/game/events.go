package game

import (
	"context"
	"encoding/json"
	"log"
)

// EventsChannel is the Redis pub/sub channel carrying match lifecycle
// events; the ws package bridges it to connected clients.
const EventsChannel = "match_events"

// publishEvent fans out a match event. Best-effort: settlement already
// committed before this runs, a lost event never loses money.
func (m *MatchManager) publishEvent(ctx context.Context, matchID int, eventType string, extra map[string]interface{}) {
	if m.rdb == nil {
		return
	}
	payload := map[string]interface{}{
		"type":     eventType,
		"match_id": matchID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal %s event for match %d: %v", eventType, matchID, err)
		return
	}
	if err := m.rdb.Publish(ctx, EventsChannel, b).Err(); err != nil {
		log.Printf("[EVENTS] Failed to publish %s event for match %d: %v", eventType, matchID, err)
	}
}
