package game

// Match lifecycle. Transitions are monotonic: waiting may become
// playing or cancelled, playing may become finished, nothing leaves a
// terminal state.
const (
	StatusWaiting   = "waiting"
	StatusPlaying   = "playing"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)

// Board cell marks. The creator always plays MarkA and moves first.
const (
	CellEmpty byte = '-'
	MarkA     byte = 'X'
	MarkB     byte = 'O'
)

// Winner values stored on the match row.
const (
	WinnerCreator  = "creator"
	WinnerOpponent = "opponent"
	WinnerDraw     = "draw"
)
