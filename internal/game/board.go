package game

// Board geometry and win detection.
//
// The board is a flat string of rows*cols cells over {'-', 'X', 'O'}.
// All maximal K-length line windows (horizontal, vertical, both
// diagonals) are enumerated once at startup, together with an index
// from each cell to the lines passing through it, so a move is checked
// against only the handful of windows it can complete.

// Lines holds the precomputed window set for one board geometry.
type Lines struct {
	rows   int
	cols   int
	winLen int
	wins   [][]int // each entry is winLen cell indexes
	byCell [][]int // cell index -> indexes into wins
}

// NewLines precomputes every K-length window on a rows x cols board.
func NewLines(rows, cols, winLen int) *Lines {
	l := &Lines{
		rows:   rows,
		cols:   cols,
		winLen: winLen,
		byCell: make([][]int, rows*cols),
	}

	dirs := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for _, d := range dirs {
				endR := r + d[0]*(winLen-1)
				endC := c + d[1]*(winLen-1)
				if endR < 0 || endR >= rows || endC < 0 || endC >= cols {
					continue
				}
				win := make([]int, winLen)
				for k := 0; k < winLen; k++ {
					win[k] = (r+d[0]*k)*cols + (c + d[1]*k)
				}
				idx := len(l.wins)
				l.wins = append(l.wins, win)
				for _, cell := range win {
					l.byCell[cell] = append(l.byCell[cell], idx)
				}
			}
		}
	}
	return l
}

// Size returns the number of cells on the board.
func (l *Lines) Size() int {
	return l.rows * l.cols
}

// EmptyBoard returns a fresh all-empty board string.
func (l *Lines) EmptyBoard() string {
	b := make([]byte, l.Size())
	for i := range b {
		b[i] = CellEmpty
	}
	return string(b)
}

// ValidPosition reports whether pos addresses a cell.
func (l *Lines) ValidPosition(pos int) bool {
	return pos >= 0 && pos < l.Size()
}

// ValidBoard checks length and alphabet of a board string.
func (l *Lines) ValidBoard(board string) bool {
	if len(board) != l.Size() {
		return false
	}
	for i := 0; i < len(board); i++ {
		switch board[i] {
		case CellEmpty, MarkA, MarkB:
		default:
			return false
		}
	}
	return true
}

// WinnerAt reports whether the mark just placed at pos completed a
// window. Only the windows through pos are scanned.
func (l *Lines) WinnerAt(board string, pos int) bool {
	mark := board[pos]
	if mark == CellEmpty {
		return false
	}
	for _, wi := range l.byCell[pos] {
		won := true
		for _, cell := range l.wins[wi] {
			if board[cell] != mark {
				won = false
				break
			}
		}
		if won {
			return true
		}
	}
	return false
}

// IsFull reports whether no empty cell remains.
func (l *Lines) IsFull(board string) bool {
	for i := 0; i < len(board); i++ {
		if board[i] == CellEmpty {
			return false
		}
	}
	return true
}

// Place returns a copy of board with mark written at pos.
func (l *Lines) Place(board string, pos int, mark byte) string {
	b := []byte(board)
	b[pos] = mark
	return string(b)
}

// otherMark flips between the two player marks.
func otherMark(mark byte) byte {
	if mark == MarkA {
		return MarkB
	}
	return MarkA
}
