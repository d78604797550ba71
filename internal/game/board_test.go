package game

import (
	"testing"
)

// Helper to build a 6x6 board with marks at given positions.
func buildBoard(l *Lines, marks map[int]byte) string {
	b := []byte(l.EmptyBoard())
	for pos, mark := range marks {
		b[pos] = mark
	}
	return string(b)
}

func testLines() *Lines {
	return NewLines(6, 6, 4)
}

func TestLineEnumeration(t *testing.T) {
	l := testLines()

	// 6x6 with K=4: 18 horizontal + 18 vertical + 9 down-right + 9 down-left
	if len(l.wins) != 54 {
		t.Errorf("expected 54 windows, got %d", len(l.wins))
	}

	// A corner cell sits on exactly 3 windows (one per direction that fits)
	if n := len(l.byCell[0]); n != 3 {
		t.Errorf("corner cell should be on 3 windows, got %d", n)
	}
}

func TestHorizontalWin(t *testing.T) {
	l := testLines()
	// horizontal run of 4 starting at row 2, col 0
	board := buildBoard(l, map[int]byte{12: MarkA, 13: MarkA, 14: MarkA, 15: MarkA})

	for _, pos := range []int{12, 13, 14, 15} {
		if !l.WinnerAt(board, pos) {
			t.Errorf("expected win detected at position %d", pos)
		}
	}
	if l.WinnerAt(board, 16) {
		t.Errorf("empty cell 16 should not report a win")
	}
}

func TestVerticalAndDiagonalWins(t *testing.T) {
	l := testLines()

	vertical := buildBoard(l, map[int]byte{3: MarkB, 9: MarkB, 15: MarkB, 21: MarkB})
	if !l.WinnerAt(vertical, 21) {
		t.Errorf("vertical run not detected")
	}

	diagDR := buildBoard(l, map[int]byte{0: MarkA, 7: MarkA, 14: MarkA, 21: MarkA})
	if !l.WinnerAt(diagDR, 14) {
		t.Errorf("down-right diagonal run not detected")
	}

	diagDL := buildBoard(l, map[int]byte{5: MarkB, 10: MarkB, 15: MarkB, 20: MarkB})
	if !l.WinnerAt(diagDL, 5) {
		t.Errorf("down-left diagonal run not detected")
	}
}

func TestThreeInARowIsNotAWin(t *testing.T) {
	l := testLines()
	board := buildBoard(l, map[int]byte{12: MarkA, 13: MarkA, 14: MarkA})
	for _, pos := range []int{12, 13, 14} {
		if l.WinnerAt(board, pos) {
			t.Errorf("three in a row should not win at position %d", pos)
		}
	}
}

func TestFullBoardDraw(t *testing.T) {
	l := testLines()

	// Alternating row inversion of XXOOXX kills every 4-window in all
	// four directions.
	rows := []string{
		"XXOOXX",
		"OOXXOO",
		"XXOOXX",
		"OOXXOO",
		"XXOOXX",
		"OOXXOO",
	}
	board := ""
	for _, r := range rows {
		board += r
	}

	if !l.ValidBoard(board) {
		t.Fatalf("draw fixture is not a valid board")
	}
	if !l.IsFull(board) {
		t.Fatalf("draw fixture should be full")
	}
	for pos := 0; pos < len(board); pos++ {
		if l.WinnerAt(board, pos) {
			t.Errorf("draw fixture reports a win at position %d", pos)
		}
	}
}

func TestValidBoard(t *testing.T) {
	l := testLines()

	if !l.ValidBoard(l.EmptyBoard()) {
		t.Errorf("empty board should be valid")
	}
	if l.ValidBoard("XO") {
		t.Errorf("short board should be invalid")
	}
	bad := []byte(l.EmptyBoard())
	bad[7] = 'Z'
	if l.ValidBoard(string(bad)) {
		t.Errorf("board with invalid symbol should be invalid")
	}
}

func TestPlaceDoesNotMutate(t *testing.T) {
	l := testLines()
	before := l.EmptyBoard()
	after := l.Place(before, 10, MarkA)

	if before[10] != CellEmpty {
		t.Errorf("Place mutated the original board")
	}
	if after[10] != MarkA {
		t.Errorf("Place did not write the mark")
	}
	if !l.ValidPosition(35) || l.ValidPosition(36) || l.ValidPosition(-1) {
		t.Errorf("ValidPosition bounds are wrong")
	}
}
