package game

import (
	"testing"
)

func pickFirst(n int) int { return 0 }

func TestBotTakesImmediateWin(t *testing.T) {
	l := testLines()
	// bot (O) has three in a row at 12,13,14 — must play 15
	board := buildBoard(l, map[int]byte{
		12: MarkB, 13: MarkB, 14: MarkB,
		0: MarkA, 1: MarkA, 6: MarkA,
	})

	pos := ChooseBotMove(l, board, MarkB, pickFirst)
	if pos != 15 && pos != 11 {
		t.Errorf("bot should complete its run (11 or 15), played %d", pos)
	}
	placed := l.Place(board, pos, MarkB)
	if !l.WinnerAt(placed, pos) {
		t.Errorf("bot's chosen move %d is not a winning move", pos)
	}
}

func TestBotBlocksOpponentWin(t *testing.T) {
	l := testLines()
	// opponent (X) threatens vertical 2,8,14 -> 20; bot has no win
	board := buildBoard(l, map[int]byte{
		2: MarkA, 8: MarkA, 14: MarkA,
		30: MarkB, 31: MarkB,
	})

	pos := ChooseBotMove(l, board, MarkB, pickFirst)
	placed := l.Place(board, pos, MarkA)
	if !l.WinnerAt(placed, pos) {
		t.Errorf("bot played %d which does not block the winning cell", pos)
	}
}

func TestBotWinBeatsBlock(t *testing.T) {
	l := testLines()
	// both sides have three in a row; the bot must take its own win
	board := buildBoard(l, map[int]byte{
		12: MarkB, 13: MarkB, 14: MarkB,
		18: MarkA, 19: MarkA, 20: MarkA,
	})

	pos := ChooseBotMove(l, board, MarkB, pickFirst)
	placed := l.Place(board, pos, MarkB)
	if !l.WinnerAt(placed, pos) {
		t.Errorf("bot blocked instead of winning, played %d", pos)
	}
}

func TestBotPrefersCenterOnEmptyBoard(t *testing.T) {
	l := testLines()
	board := l.EmptyBoard()

	// With pick=first the bot takes the cell nearest the center.
	pos := ChooseBotMove(l, board, MarkB, pickFirst)
	central := map[int]bool{14: true, 15: true, 20: true, 21: true}
	if !central[pos] {
		t.Errorf("bot should open near the center, played %d", pos)
	}
}

func TestBotShortlistIsRandomized(t *testing.T) {
	l := testLines()
	board := l.EmptyBoard()

	seen := map[int]bool{}
	for i := 0; i < 4; i++ {
		i := i
		pos := ChooseBotMove(l, board, MarkB, func(n int) int { return i % n })
		seen[pos] = true
	}
	if len(seen) < 2 {
		t.Errorf("shortlist picks should vary, always got the same cell")
	}
}

func TestBotReturnsNoMoveOnFullBoard(t *testing.T) {
	l := testLines()
	b := []byte(l.EmptyBoard())
	for i := range b {
		b[i] = MarkA
	}
	if pos := ChooseBotMove(l, string(b), MarkB, pickFirst); pos != -1 {
		t.Errorf("expected -1 on full board, got %d", pos)
	}
}

func TestNamePoolRotates(t *testing.T) {
	p := newNamePool()
	first := p.next()
	second := p.next()
	if first == second {
		t.Errorf("consecutive bot names should differ: %q", first)
	}
	// pool wraps around
	for i := 0; i < len(botNames)-2; i++ {
		p.next()
	}
	if again := p.next(); again != first {
		t.Errorf("pool should wrap to %q, got %q", first, again)
	}
}
