package game

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/playgrid/backend/internal/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	l := testLines()
	board := buildBoard(l, map[int]byte{14: MarkA, 15: MarkB, 20: MarkA})

	snap := Snapshot{
		Match: models.Match{
			ID:           42,
			CreatorID:    1,
			OpponentID:   sql.NullInt64{Int64: 2, Valid: true},
			Board:        board,
			CurrentTurn:  string(MarkB),
			Status:       StatusPlaying,
			Stake:        100,
			Fee:          10,
			CreatorName:  "alice",
			OpponentName: "Blitz",
			CreatedAt:    time.Now().UTC(),
		},
		Moves: []models.Move{
			{ID: 1, MatchID: 42, UserID: 1, Position: 14, Mark: string(MarkA)},
			{ID: 2, MatchID: 42, UserID: 2, Position: 15, Mark: string(MarkB)},
			{ID: 3, MatchID: 42, UserID: 1, Position: 20, Mark: string(MarkA)},
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(back.Match.Board) != l.Size() {
		t.Errorf("board length %d, want %d", len(back.Match.Board), l.Size())
	}
	if !l.ValidBoard(back.Match.Board) {
		t.Errorf("round-tripped board contains invalid symbols: %q", back.Match.Board)
	}
	if back.Match.Status != StatusPlaying || back.Match.CurrentTurn != string(MarkB) {
		t.Errorf("status/turn did not survive the round trip")
	}
	if len(back.Moves) != 3 {
		t.Errorf("expected 3 moves, got %d", len(back.Moves))
	}
	for _, mv := range back.Moves {
		if back.Match.Board[mv.Position] != mv.Mark[0] {
			t.Errorf("board cell %d does not match move mark %q", mv.Position, mv.Mark)
		}
	}
}
