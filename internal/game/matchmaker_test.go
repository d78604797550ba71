package game

import (
	"encoding/json"
	"testing"
)

func TestJoinResultWireShape(t *testing.T) {
	// joining a specific match reports the started state as "playing";
	// createOrJoin reports "matched" or "waiting"
	b, err := json.Marshal(JoinResult{Status: StatusPlaying, MatchID: 4, Fee: 10, TotalDebited: 110})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"status":"playing","match_id":4,"fee":10,"total_debited":110}`
	if string(b) != want {
		t.Errorf("join result wire shape = %s, want %s", b, want)
	}
}
